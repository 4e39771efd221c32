// Package route computes link path geometry for a positioned diagram.
//
// Each link docks at its nodes' perimeters via ray-box intersection, so
// connection points slide continuously around a node instead of snapping
// to four fixed ports. Paths are straight segments when the endpoints
// align, and 3-segment orthogonal runs otherwise, with the bend chosen
// from a small candidate set to dodge intervening node boxes. Parallel
// and bidirectional links between the same node pair are fanned apart
// perpendicular to their axis. Each path is also rendered as an SVG
// descriptor with rounded bends.
//
// Routing is the engine's incremental entry point: it reads node and
// container positions but never moves them, so re-routing after a manual
// edit recomputes only link and label geometry.
package route

import (
	"fmt"
	"math"
	"strings"

	"github.com/archflowhq/archflow/pkg/geometry"
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/config"
)

// alignTol treats endpoints within half a unit as axis-aligned; the
// resulting sub-unit jog would not be visible at any zoom level.
const alignTol = 0.5

// Links routes every link in the diagram, writing each link's Path and
// PathData in place. Links with unresolvable endpoints get an empty path
// (Sanitize normally removes them before routing reaches them).
func Links(d *graph.Diagram, cfg config.Config) {
	groups := groupByPair(d.Links)

	for i := range d.Links {
		l := &d.Links[i]
		src := d.Node(l.Source)
		tgt := d.Node(l.Target)
		if src == nil || tgt == nil {
			l.Path = nil
			l.PathData = ""
			continue
		}

		g := groups[pairKey(l.Source, l.Target)]
		offset := parallelOffset(g, i, cfg.ParallelLinkSpacing)
		l.Path = routeOne(d, l, src, tgt, offset, cfg)
		l.PathData = PathData(l.Path, cfg.CornerRadius)
	}
}

// PathData renders a polyline as an SVG path descriptor. Interior bends
// are rounded with a quadratic curve of the given radius, clamped to
// half of each adjacent segment so short runs never overshoot. A radius
// of zero emits plain line segments.
func PathData(pts []geometry.Point, radius float64) string {
	if len(pts) < 2 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "M %.2f %.2f", pts[0].X, pts[0].Y)

	for i := 1; i < len(pts)-1; i++ {
		prev, bend, next := pts[i-1], pts[i], pts[i+1]
		r := math.Min(radius, math.Min(dist(prev, bend), dist(bend, next))/2)
		if r <= 0 {
			fmt.Fprintf(&b, " L %.2f %.2f", bend.X, bend.Y)
			continue
		}
		in := toward(bend, prev, r)
		out := toward(bend, next, r)
		fmt.Fprintf(&b, " L %.2f %.2f Q %.2f %.2f %.2f %.2f",
			in.X, in.Y, bend.X, bend.Y, out.X, out.Y)
	}

	last := pts[len(pts)-1]
	fmt.Fprintf(&b, " L %.2f %.2f", last.X, last.Y)
	return b.String()
}

// toward returns the point at distance r from p along the segment p→q.
func toward(p, q geometry.Point, r float64) geometry.Point {
	d := dist(p, q)
	if d == 0 {
		return p
	}
	return geometry.Point{X: p.X + (q.X-p.X)*r/d, Y: p.Y + (q.Y-p.Y)*r/d}
}

func dist(a, b geometry.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// routeOne computes the path for a single link.
func routeOne(d *graph.Diagram, l *graph.Link, src, tgt *graph.Node, offset float64, cfg config.Config) []geometry.Point {
	srcAim := geometry.Point{X: tgt.X, Y: tgt.Y}
	tgtAim := geometry.Point{X: src.X, Y: src.Y}

	if offset != 0 {
		// Fan parallel links apart by aiming each at a laterally shifted
		// ghost of the other node. The dock points stay on the perimeter
		// but spread out, so the paths no longer coincide.
		px, py := perpendicular(src, tgt, l.Source, l.Target)
		srcAim = srcAim.Add(px*offset, py*offset)
		tgtAim = tgtAim.Add(px*offset, py*offset)
	}

	start := src.Box().PerimeterPoint(srcAim)
	end := tgt.Box().PerimeterPoint(tgtAim)

	// Aligned endpoints take a straight segment.
	if math.Abs(start.Y-end.Y) < alignTol || math.Abs(start.X-end.X) < alignTol {
		return []geometry.Point{start, end}
	}

	obstacles := obstacleBoxes(d, l.Source, l.Target)
	if math.Abs(end.X-start.X) >= math.Abs(end.Y-start.Y) {
		return routeHVH(l, start, end, obstacles, cfg)
	}
	return routeVHV(l, start, end, obstacles, cfg)
}

// routeHVH emits a horizontal-vertical-horizontal run. The vertical
// middle segment sits at a bend x chosen from candidates (midpoint, near
// the source, near the target); the first candidate whose middle segment
// clears every obstacle wins, with the midpoint as fallback.
func routeHVH(l *graph.Link, start, end geometry.Point, obstacles []geometry.Rect, cfg config.Config) []geometry.Point {
	dir := sign(end.X - start.X)
	candidates := bendCandidates(l, start.X, end.X, dir*cfg.BendOffset)

	bendX := candidates[0]
	for _, bx := range candidates {
		mid1 := geometry.Point{X: bx, Y: start.Y}
		mid2 := geometry.Point{X: bx, Y: end.Y}
		if segmentClear(mid1, mid2, obstacles, cfg.ObstacleTolerance) {
			bendX = bx
			break
		}
	}

	return []geometry.Point{
		start,
		{X: bendX, Y: start.Y},
		{X: bendX, Y: end.Y},
		end,
	}
}

// routeVHV emits a vertical-horizontal-vertical run, the transpose of
// routeHVH.
func routeVHV(l *graph.Link, start, end geometry.Point, obstacles []geometry.Rect, cfg config.Config) []geometry.Point {
	dir := sign(end.Y - start.Y)
	candidates := bendCandidates(l, start.Y, end.Y, dir*cfg.BendOffset)

	bendY := candidates[0]
	for _, by := range candidates {
		mid1 := geometry.Point{X: start.X, Y: by}
		mid2 := geometry.Point{X: end.X, Y: by}
		if segmentClear(mid1, mid2, obstacles, cfg.ObstacleTolerance) {
			bendY = by
			break
		}
	}

	return []geometry.Point{
		start,
		{X: start.X, Y: bendY},
		{X: end.X, Y: bendY},
		end,
	}
}

// bendCandidates lists bend coordinates along the main axis in
// preference order: explicit curvature override first, then the
// midpoint, then offsets hugging the source and target. The midpoint
// leads so the fallback (index 0 when every candidate collides) matches
// the midpoint rule.
func bendCandidates(l *graph.Link, from, to, offset float64) []float64 {
	mid := (from + to) / 2
	out := make([]float64, 0, 4)
	if l.Curvature > 0 && l.Curvature <= 1 {
		out = append(out, from+(to-from)*l.Curvature)
	}
	return append(out, mid, from+offset, to-offset)
}

// segmentClear reports whether the segment hits none of the obstacles.
func segmentClear(a, b geometry.Point, obstacles []geometry.Rect, tol float64) bool {
	for _, o := range obstacles {
		if o.IntersectsSegment(a, b, tol) {
			return false
		}
	}
	return true
}

// obstacleBoxes collects the boxes of every node except the link's own
// endpoints. Obstacles are transient: derived here, never persisted.
func obstacleBoxes(d *graph.Diagram, srcID, tgtID string) []geometry.Rect {
	out := make([]geometry.Rect, 0, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.ID == srcID || n.ID == tgtID {
			continue
		}
		out = append(out, n.Box())
	}
	return out
}

// perpendicular returns the unit vector perpendicular to the canonical
// source→target axis. Canonical means oriented from the lexicographically
// smaller node ID to the larger one, so the two directions of a
// bidirectional pair fan to opposite sides instead of overlapping.
func perpendicular(src, tgt *graph.Node, srcID, tgtID string) (float64, float64) {
	ax, ay := src.X, src.Y
	bx, by := tgt.X, tgt.Y
	if srcID > tgtID {
		ax, ay, bx, by = bx, by, ax, ay
	}
	dx, dy := bx-ax, by-ay
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return 0, 1
	}
	return -dy / dist, dx / dist
}

// pairKey normalizes a link's endpoints into an order-independent key,
// so A→B and B→A land in the same parallel group.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// groupByPair collects link indices per node pair, in input order.
func groupByPair(links []graph.Link) map[string][]int {
	groups := make(map[string][]int)
	for i, l := range links {
		k := pairKey(l.Source, l.Target)
		groups[k] = append(groups[k], i)
	}
	return groups
}

// parallelOffset computes the lateral offset for link index i within
// its group: spacing × (position - (count-1)/2), centering the fan on
// the node axis. Lone links get no offset.
func parallelOffset(group []int, linkIndex int, spacing float64) float64 {
	if len(group) < 2 {
		return 0
	}
	pos := 0
	for g, idx := range group {
		if idx == linkIndex {
			pos = g
			break
		}
	}
	return spacing * (float64(pos) - float64(len(group)-1)/2)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
