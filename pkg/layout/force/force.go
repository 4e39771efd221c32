// Package force implements the force-directed layout refiner, used when
// no reliable layering exists for the deterministic strategies.
//
// The simulation is the classic spring-embedder loop: every node pair
// repels with a force inversely proportional to their distance, every
// link attracts its endpoints with a force proportional to the squared
// distance over the ideal edge length. Positions are mutated in place
// each iteration up to a hard cap, so the refiner always terminates.
//
// A linear cooling schedule bounds per-iteration movement. Cooling is
// not required for correctness, only for visual stability; without it,
// dense graphs oscillate instead of settling.
//
// The refiner is deterministic: unseeded nodes get positions from a
// seeded pseudo-random source (config.ForceSeed), so identical input
// yields identical output.
package force

import (
	"math"
	"math/rand"

	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/config"
)

// minDistance avoids division blow-ups for coincident nodes.
const minDistance = 0.01

// Refine runs the force simulation over the diagram's nodes, mutating
// their positions in place. Nodes at the origin are treated as unseeded
// and scattered across the canvas before the first iteration.
func Refine(d *graph.Diagram, cfg config.Config) {
	n := len(d.Nodes)
	if n == 0 {
		return
	}

	seedPositions(d, cfg.ForceSeed)

	if n == 1 {
		d.Nodes[0].X = d.Canvas.Width / 2
		d.Nodes[0].Y = d.Canvas.Height / 2
		return
	}

	idx := d.NodeIndex()
	dispX := make([]float64, n)
	dispY := make([]float64, n)

	// Cooling: start allowing moves of a tenth of the canvas, shrink to
	// near zero by the final iteration.
	startTemp := math.Max(d.Canvas.Width, d.Canvas.Height) / 10

	for it := 0; it < cfg.ForceIterations; it++ {
		for i := range dispX {
			dispX[i] = 0
			dispY[i] = 0
		}

		applyRepulsion(d, cfg, dispX, dispY)
		applyAttraction(d, cfg, idx, dispX, dispY)

		temp := startTemp * (1 - float64(it)/float64(cfg.ForceIterations))
		for i := range d.Nodes {
			moveBounded(&d.Nodes[i], dispX[i], dispY[i], temp)
		}
	}

	clampToCanvas(d, cfg)
}

// applyRepulsion pushes every node pair apart with force spacing²/d,
// split equally between the two.
func applyRepulsion(d *graph.Diagram, cfg config.Config, dispX, dispY []float64) {
	for i := 0; i < len(d.Nodes); i++ {
		for j := i + 1; j < len(d.Nodes); j++ {
			dx := d.Nodes[j].X - d.Nodes[i].X
			dy := d.Nodes[j].Y - d.Nodes[i].Y
			dist := math.Hypot(dx, dy)
			if dist < minDistance {
				// Coincident nodes: separate along a fixed axis so the
				// result stays deterministic.
				dx, dy, dist = 1, 0, 1
			}

			force := cfg.ForceSpacing * cfg.ForceSpacing / dist
			ux, uy := dx/dist, dy/dist
			half := force / 2
			dispX[i] -= ux * half
			dispY[i] -= uy * half
			dispX[j] += ux * half
			dispY[j] += uy * half
		}
	}
}

// applyAttraction pulls linked nodes together with force d²/idealEdge,
// split equally between source and target.
func applyAttraction(d *graph.Diagram, cfg config.Config, idx map[string]int, dispX, dispY []float64) {
	for _, l := range d.Links {
		si, ok := idx[l.Source]
		if !ok {
			continue
		}
		ti, ok := idx[l.Target]
		if !ok || si == ti {
			continue
		}

		dx := d.Nodes[ti].X - d.Nodes[si].X
		dy := d.Nodes[ti].Y - d.Nodes[si].Y
		dist := math.Hypot(dx, dy)
		if dist < minDistance {
			continue
		}

		force := dist * dist / cfg.ForceIdealEdge
		ux, uy := dx/dist, dy/dist
		half := force / 2
		dispX[si] += ux * half
		dispY[si] += uy * half
		dispX[ti] -= ux * half
		dispY[ti] -= uy * half
	}
}

// moveBounded applies a displacement capped at the current temperature.
func moveBounded(n *graph.Node, dx, dy, temp float64) {
	mag := math.Hypot(dx, dy)
	if mag < minDistance {
		return
	}
	step := math.Min(mag, temp)
	n.X += dx / mag * step
	n.Y += dy / mag * step
}

// seedPositions scatters unseeded nodes (those still at the origin)
// across the central region of the canvas using the configured seed.
func seedPositions(d *graph.Diagram, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.X != 0 || n.Y != 0 {
			continue
		}
		n.X = d.Canvas.Width*0.25 + rng.Float64()*d.Canvas.Width*0.5
		n.Y = d.Canvas.Height*0.25 + rng.Float64()*d.Canvas.Height*0.5
	}
}

// clampToCanvas keeps every node box inside the canvas with padding.
func clampToCanvas(d *graph.Diagram, cfg config.Config) {
	for i := range d.Nodes {
		n := &d.Nodes[i]
		minX := cfg.Padding + n.Width/2
		maxX := d.Canvas.Width - cfg.Padding - n.Width/2
		minY := cfg.Padding + n.Height/2
		maxY := d.Canvas.Height - cfg.Padding - n.Height/2
		if maxX > minX {
			n.X = math.Min(math.Max(n.X, minX), maxX)
		}
		if maxY > minY {
			n.Y = math.Min(math.Max(n.Y, minY), maxY)
		}
	}
}
