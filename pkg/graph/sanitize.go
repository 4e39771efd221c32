package graph

import "github.com/archflowhq/archflow/pkg/geometry"

// SanitizeReport summarizes what Sanitize changed. All counts are
// informational; sanitization never fails.
type SanitizeReport struct {
	DroppedLinks    int // links whose source or target did not resolve
	DefaultedSizes  int // nodes or containers with non-positive extents
	DefaultedCoords int // non-finite coordinates replaced
}

// Sanitize normalizes a diagram in place so that downstream stages can
// assume finite, positive geometry and resolvable link endpoints.
//
// The rules are part of the input contract:
//   - non-finite x/y coordinates become 0
//   - non-positive or non-finite widths/heights become the package defaults
//   - a zero-valued canvas becomes DefaultCanvasWidth × DefaultCanvasHeight
//   - links referencing a missing node are dropped, never reported as errors
//
// One malformed link must not abort the whole diagram's layout, so
// Sanitize has no error return.
func Sanitize(d *Diagram) SanitizeReport {
	var rep SanitizeReport

	for i := range d.Nodes {
		n := &d.Nodes[i]
		if !geometry.IsFinite(n.X) || !geometry.IsFinite(n.Y) {
			rep.DefaultedCoords++
		}
		n.X = geometry.FiniteOr(n.X, 0)
		n.Y = geometry.FiniteOr(n.Y, 0)

		w := geometry.PositiveOr(n.Width, DefaultNodeWidth)
		h := geometry.PositiveOr(n.Height, DefaultNodeHeight)
		if w != n.Width || h != n.Height {
			rep.DefaultedSizes++
		}
		n.Width = w
		n.Height = h
	}

	for i := range d.Containers {
		c := &d.Containers[i]
		if !geometry.IsFinite(c.X) || !geometry.IsFinite(c.Y) {
			rep.DefaultedCoords++
		}
		c.X = geometry.FiniteOr(c.X, 0)
		c.Y = geometry.FiniteOr(c.Y, 0)

		w := geometry.PositiveOr(c.Width, DefaultContainerWidth)
		h := geometry.PositiveOr(c.Height, DefaultContainerHeight)
		if w != c.Width || h != c.Height {
			rep.DefaultedSizes++
		}
		c.Width = w
		c.Height = h
	}

	if d.Canvas.Width <= 0 || !geometry.IsFinite(d.Canvas.Width) {
		d.Canvas.Width = DefaultCanvasWidth
	}
	if d.Canvas.Height <= 0 || !geometry.IsFinite(d.Canvas.Height) {
		d.Canvas.Height = DefaultCanvasHeight
	}

	idx := d.NodeIndex()
	kept := d.Links[:0]
	for _, l := range d.Links {
		if _, ok := idx[l.Source]; !ok {
			rep.DroppedLinks++
			continue
		}
		if _, ok := idx[l.Target]; !ok {
			rep.DroppedLinks++
			continue
		}
		kept = append(kept, l)
	}
	d.Links = kept

	return rep
}
