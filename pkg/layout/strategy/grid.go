package strategy

import (
	"math"

	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/config"
)

// applyGrid places nodes row by row in input order. The column count is
// chosen to keep the grid roughly square (ceil of the square root of the
// node count), capped by GridMaxColumns when configured. Cell size is
// uniform: the largest node extent plus the configured gap, so cells
// never overlap regardless of individual node sizes.
func applyGrid(d *graph.Diagram, cfg config.Config) {
	n := len(d.Nodes)
	if n == 0 {
		return
	}

	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cfg.GridMaxColumns > 0 && cols > cfg.GridMaxColumns {
		cols = cfg.GridMaxColumns
	}
	if cols < 1 {
		cols = 1
	}

	var cellW, cellH float64
	for _, node := range d.Nodes {
		cellW = math.Max(cellW, node.Width)
		cellH = math.Max(cellH, node.Height)
	}
	cellW += cfg.NodeGap
	cellH += cfg.NodeGap

	for i := range d.Nodes {
		row := i / cols
		col := i % cols
		d.Nodes[i].X = cfg.Padding + float64(col)*cellW + cellW/2
		d.Nodes[i].Y = cfg.Padding + float64(row)*cellH + cellH/2
	}
}
