package strategy

import (
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/config"
	"github.com/archflowhq/archflow/pkg/layout/tier"
)

// applyPipeline lays the diagram out as a single horizontal row: one
// column per layer, centered vertically on the canvas.
//
// Node centers follow x = padding + layer × layerSpacing. When a layer
// holds more than one node (a branch in an otherwise linear flow) its
// members stack vertically around the row's midline.
func applyPipeline(d *graph.Diagram, plan *tier.Plan, cfg config.Config) {
	midY := d.Canvas.Height / 2

	for layer, row := range plan.Rows {
		x := cfg.Padding + float64(layer)*cfg.LayerSpacing

		if len(row) == 1 {
			if n := d.Node(row[0]); n != nil {
				n.X = x
				n.Y = midY
			}
			continue
		}

		total := rowExtent(d, row, cfg.NodeGap, func(n *graph.Node) float64 { return n.Height })
		y := midY - total/2
		for _, id := range row {
			n := d.Node(id)
			if n == nil {
				continue
			}
			n.X = x
			n.Y = y + n.Height/2
			y += n.Height + cfg.NodeGap
		}
	}
}

// applyTiered stacks layers top to bottom. Each layer's nodes are
// centered horizontally: the row's total extent is the sum of node
// widths plus gaps, and the row starts at (canvasWidth - total)/2.
func applyTiered(d *graph.Diagram, plan *tier.Plan, cfg config.Config) {
	for layer, row := range plan.Rows {
		y := cfg.Padding + float64(layer)*cfg.LayerSpacing

		total := rowExtent(d, row, cfg.NodeGap, func(n *graph.Node) float64 { return n.Width })
		x := (d.Canvas.Width - total) / 2
		if x < cfg.Padding {
			x = cfg.Padding
		}

		for _, id := range row {
			n := d.Node(id)
			if n == nil {
				continue
			}
			n.X = x + n.Width/2
			n.Y = y
			x += n.Width + cfg.NodeGap
		}
	}
}

// rowExtent sums node extents along one axis plus the gaps between them.
func rowExtent(d *graph.Diagram, row []string, gap float64, extent func(*graph.Node) float64) float64 {
	var total float64
	count := 0
	for _, id := range row {
		if n := d.Node(id); n != nil {
			total += extent(n)
			count++
		}
	}
	if count > 1 {
		total += float64(count-1) * gap
	}
	return total
}
