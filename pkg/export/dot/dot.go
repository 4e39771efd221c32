// Package dot exports a positioned diagram as Graphviz DOT, with an
// in-process SVG preview.
//
// The export is a debugging and inspection surface, not a rendering
// pipeline: the engine's own coordinates are pinned (neato-style
// pos="x,y!"), so the preview shows exactly what the layout produced
// instead of letting Graphviz re-layout the graph. Containers become
// clusters; link styles map to edge styles.
//
// # Usage
//
//	src := dot.ToDOT(diagram, dot.Options{})
//	svg, err := dot.RenderSVG(src)
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/archflowhq/archflow/pkg/graph"
)

// pointsPerUnit converts canvas units to Graphviz points.
const pointsPerUnit = 72.0 / 100.0

// Options configures DOT export.
type Options struct {
	// Detailed includes the node type and layer in labels.
	// When false, only the display label is shown.
	Detailed bool

	// Unpinned drops the position attributes and lets Graphviz lay the
	// graph out itself, which is useful for eyeballing the input graph
	// before the engine runs.
	Unpinned bool
}

// ToDOT converts a diagram to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(d *graph.Diagram, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if !opts.Unpinned {
		buf.WriteString("  layout=neato;\n")
		buf.WriteString("  splines=line;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	inCluster := map[string]bool{}
	for ci := range d.Containers {
		c := &d.Containers[ci]
		fmt.Fprintf(&buf, "  subgraph \"cluster_%s\" {\n", c.ID)
		fmt.Fprintf(&buf, "    label=%q;\n", c.DisplayLabel())
		for ni := range d.Nodes {
			n := &d.Nodes[ni]
			if n.ContainerID != c.ID {
				continue
			}
			inCluster[n.ID] = true
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(nodeAttrs(d, n, opts), ", "))
		}
		buf.WriteString("  }\n")
	}

	for ni := range d.Nodes {
		n := &d.Nodes[ni]
		if inCluster[n.ID] {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(d, n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, l := range d.Links {
		attrs := edgeAttrs(l)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", l.Source, l.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", l.Source, l.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(d *graph.Diagram, n *graph.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, opts.Detailed))}
	if !opts.Unpinned {
		// Graphviz y grows upward; the canvas y grows downward.
		px := n.X * pointsPerUnit
		py := (d.Canvas.Height - n.Y) * pointsPerUnit
		attrs = append(attrs,
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", px, py),
			fmt.Sprintf("width=%.3f", n.Width/100),
			fmt.Sprintf("height=%.3f", n.Height/100),
			"fixedsize=true",
		)
	}
	return attrs
}

func nodeLabel(n *graph.Node, detailed bool) string {
	if !detailed {
		return n.DisplayLabel()
	}
	parts := []string{n.DisplayLabel()}
	if n.Type != "" {
		parts = append(parts, "type: "+n.Type)
	}
	if n.Layer != nil {
		parts = append(parts, fmt.Sprintf("layer: %d", *n.Layer))
	}
	return strings.Join(parts, "\n")
}

func edgeAttrs(l graph.Link) []string {
	var attrs []string
	if l.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", l.Label))
	}
	switch l.Style {
	case graph.StyleDashed:
		attrs = append(attrs, "style=dashed")
	case graph.StyleDotted:
		attrs = append(attrs, "style=dotted")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
