// Package label places link labels so they collide with as little as
// possible.
//
// Placement is greedy and order-dependent by design: labels are handled
// in link order, each one claims the first collision-free spot from a
// ranked candidate list, and every claimed spot becomes an occupied zone
// for the labels after it. The result is not globally optimal, but it is
// deterministic and fast, and adding candidates can only reduce the
// number of colliding pairs.
package label

import (
	"github.com/archflowhq/archflow/pkg/geometry"
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/config"
)

// Place positions the label of every labeled link, writing LabelAnchor
// in place. Node and container boxes seed the occupied zones, so labels
// avoid diagram geometry as well as each other.
func Place(d *graph.Diagram, cfg config.Config) {
	PlaceWithCandidates(d, cfg, len(candidateOffsets(1, 1)))
}

// PlaceWithCandidates is Place with the candidate list truncated to the
// first maxCandidates entries. Exposed so property tests can verify that
// a longer candidate list never increases the collision count; normal
// callers use Place.
func PlaceWithCandidates(d *graph.Diagram, cfg config.Config, maxCandidates int) {
	zones := seedZones(d)

	labelIdx := 0
	for i := range d.Links {
		l := &d.Links[i]
		if l.Label == "" || len(l.Path) == 0 {
			l.LabelAnchor = nil
			continue
		}

		w := float64(len(l.Label))*cfg.LabelCharWidth + cfg.LabelPadding*2
		h := cfg.LabelHeight
		mid := pathMidpoint(l.Path)

		offsets := candidateOffsets(w/2+cfg.LabelPadding*2, h+cfg.LabelPadding*2)
		if maxCandidates < len(offsets) {
			offsets = offsets[:maxCandidates]
		}

		anchor, ok := firstFree(mid, offsets, w, h, cfg.LabelPadding, zones)
		if !ok {
			// Every candidate collides. Derive a fallback from the label
			// index so exhausted labels at least spread out instead of
			// stacking on one midpoint.
			anchor = fallbackAnchor(mid, labelIdx, w, h)
		}

		l.LabelAnchor = &anchor
		zones = append(zones, paddedRect(anchor, w, h, cfg.LabelPadding))
		labelIdx++
	}
}

// seedZones collects every node and container box as an occupied zone.
func seedZones(d *graph.Diagram) []geometry.Rect {
	zones := make([]geometry.Rect, 0, len(d.Nodes)+len(d.Containers))
	for i := range d.Nodes {
		zones = append(zones, d.Nodes[i].Box())
	}
	for i := range d.Containers {
		zones = append(zones, d.Containers[i].Box())
	}
	return zones
}

// candidateOffsets returns the ranked displacement list tried for every
// label: the path midpoint itself, then vertical, horizontal, diagonal,
// and far variants. dx and dy scale with the label's footprint.
func candidateOffsets(dx, dy float64) []geometry.Point {
	return []geometry.Point{
		{X: 0, Y: 0},
		{X: 0, Y: -dy},
		{X: 0, Y: dy},
		{X: -dx, Y: 0},
		{X: dx, Y: 0},
		{X: -dx, Y: -dy},
		{X: dx, Y: -dy},
		{X: -dx, Y: dy},
		{X: dx, Y: dy},
		{X: 0, Y: -2 * dy},
		{X: 0, Y: 2 * dy},
		{X: -2 * dx, Y: 0},
		{X: 2 * dx, Y: 0},
	}
}

// firstFree returns the first candidate position whose padded label
// rectangle overlaps no occupied zone.
func firstFree(mid geometry.Point, offsets []geometry.Point, w, h, pad float64, zones []geometry.Rect) (geometry.Point, bool) {
	for _, off := range offsets {
		p := mid.Add(off.X, off.Y)
		r := paddedRect(p, w, h, pad)
		if !overlapsAny(r, zones) {
			return p, true
		}
	}
	return geometry.Point{}, false
}

func paddedRect(center geometry.Point, w, h, pad float64) geometry.Rect {
	return geometry.RectFromCenter(center, w, h).Expand(pad)
}

func overlapsAny(r geometry.Rect, zones []geometry.Rect) bool {
	for _, z := range zones {
		if r.Overlaps(z, 0) {
			return true
		}
	}
	return false
}

// fallbackAnchor spreads exhausted labels on a deterministic offset
// derived from the label's index.
func fallbackAnchor(mid geometry.Point, idx int, w, h float64) geometry.Point {
	col := float64(idx%3 - 1)
	row := float64(idx%4 + 1)
	return mid.Add(col*(w+8), -row*(h+4))
}

// pathMidpoint returns the point halfway along the polyline by arc
// length. A single-point path returns that point.
func pathMidpoint(path []geometry.Point) geometry.Point {
	if len(path) == 1 {
		return path[0]
	}

	var total float64
	for i := 1; i < len(path); i++ {
		total += path[i-1].DistanceTo(path[i])
	}
	if total == 0 {
		return path[0]
	}

	remaining := total / 2
	for i := 1; i < len(path); i++ {
		segLen := path[i-1].DistanceTo(path[i])
		if segLen >= remaining {
			t := remaining / segLen
			return geometry.Point{
				X: path[i-1].X + (path[i].X-path[i-1].X)*t,
				Y: path[i-1].Y + (path[i].Y-path[i-1].Y)*t,
			}
		}
		remaining -= segLen
	}
	return path[len(path)-1]
}
