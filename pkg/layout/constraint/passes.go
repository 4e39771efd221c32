package constraint

import (
	"math"

	"github.com/archflowhq/archflow/pkg/graph"
)

// =============================================================================
// Minimum Spacing
// =============================================================================

// MinSpacingPass pushes node pairs apart until their centers are at
// least Spacing units apart on at least one axis. The push is symmetric:
// both nodes move half the deficit, along whichever axis is already the
// wider one (ties go to x). Separating one pair can re-violate a
// neighbor, so Apply sweeps the pairs repeatedly until a full sweep
// pushes nothing, bounded by a hard iteration cap. Pairs are ordered by
// node-list index, so the fixed point is deterministic and a second
// Apply is a no-op.
type MinSpacingPass struct {
	Spacing float64
}

// maxSpacingSweeps bounds the fixed-point iteration on pathological
// inputs (many coincident nodes).
const maxSpacingSweeps = 64

// spacingSlack absorbs float rounding in the pair deficit, so a pair
// separated to within a hair of Spacing is not pushed again forever.
const spacingSlack = 1e-9

// Name implements Pass.
func (p *MinSpacingPass) Name() string { return "min-spacing" }

// Priority implements Pass.
func (p *MinSpacingPass) Priority() int { return PriorityMinSpacing }

// Apply implements Pass.
func (p *MinSpacingPass) Apply(d *graph.Diagram) {
	for sweep := 0; sweep < maxSpacingSweeps; sweep++ {
		if !p.sweep(d) {
			return
		}
	}
}

// sweep pushes every violating pair once and reports whether anything
// moved.
func (p *MinSpacingPass) sweep(d *graph.Diagram) bool {
	moved := false
	for i := 0; i < len(d.Nodes); i++ {
		for j := i + 1; j < len(d.Nodes); j++ {
			a, b := &d.Nodes[i], &d.Nodes[j]
			dx := b.X - a.X
			dy := b.Y - a.Y
			if math.Abs(dx) >= p.Spacing-spacingSlack || math.Abs(dy) >= p.Spacing-spacingSlack {
				continue
			}
			moved = true

			if math.Abs(dx) >= math.Abs(dy) {
				push := (p.Spacing - math.Abs(dx)) / 2
				if dx < 0 {
					push = -push
				} else if dx == 0 {
					push = p.Spacing / 2
				}
				a.X -= push
				b.X += push
			} else {
				push := (p.Spacing - math.Abs(dy)) / 2
				if dy < 0 {
					push = -push
				}
				a.Y -= push
				b.Y += push
			}
		}
	}
	return moved
}

// =============================================================================
// Boundary Clamping
// =============================================================================

// BoundaryPass clamps every node box into the canvas, inset by Padding.
// Containers are not clamped here; their bounds are recomputed from
// member positions after constraints run.
type BoundaryPass struct {
	Padding float64
}

// Name implements Pass.
func (p *BoundaryPass) Name() string { return "boundary" }

// Priority implements Pass.
func (p *BoundaryPass) Priority() int { return PriorityBoundary }

// Apply implements Pass.
func (p *BoundaryPass) Apply(d *graph.Diagram) {
	for i := range d.Nodes {
		n := &d.Nodes[i]
		minX := p.Padding + n.Width/2
		maxX := d.Canvas.Width - p.Padding - n.Width/2
		minY := p.Padding + n.Height/2
		maxY := d.Canvas.Height - p.Padding - n.Height/2
		if maxX > minX {
			n.X = math.Min(math.Max(n.X, minX), maxX)
		}
		if maxY > minY {
			n.Y = math.Min(math.Max(n.Y, minY), maxY)
		}
	}
}

// =============================================================================
// Relative Position (user-declared)
// =============================================================================

// Relation names the spatial relationship a RelativePass enforces.
type Relation string

// Supported relations.
const (
	LeftOf     Relation = "left-of"
	RightOf    Relation = "right-of"
	Above      Relation = "above"
	Below      Relation = "below"
	CenteredOn Relation = "centered-on"
)

// RelativePass moves NodeID so that it satisfies Relation with respect
// to Anchor, keeping at least MinDistance between centers on the
// relevant axis. Only the constrained node moves; the anchor stays put.
type RelativePass struct {
	NodeID      string
	Anchor      string
	Relation    Relation
	MinDistance float64
	Prio        int
}

// Name implements Pass.
func (p *RelativePass) Name() string { return "relative:" + string(p.Relation) }

// Priority implements Pass.
func (p *RelativePass) Priority() int { return clampUserPriority(p.Prio) }

// Apply implements Pass.
func (p *RelativePass) Apply(d *graph.Diagram) {
	node := d.Node(p.NodeID)
	anchor := d.Node(p.Anchor)
	if node == nil || anchor == nil {
		return // dangling constraint, skip silently like a dangling link
	}

	switch p.Relation {
	case LeftOf:
		if limit := anchor.X - p.MinDistance; node.X > limit {
			node.X = limit
		}
	case RightOf:
		if limit := anchor.X + p.MinDistance; node.X < limit {
			node.X = limit
		}
	case Above:
		if limit := anchor.Y - p.MinDistance; node.Y > limit {
			node.Y = limit
		}
	case Below:
		if limit := anchor.Y + p.MinDistance; node.Y < limit {
			node.Y = limit
		}
	case CenteredOn:
		node.X = anchor.X
		node.Y = anchor.Y
	}
}

// =============================================================================
// Alignment (user-declared)
// =============================================================================

// Axis selects the shared coordinate for an AlignPass.
type Axis string

// Alignment axes. Horizontal alignment shares a y coordinate (a row);
// vertical alignment shares an x coordinate (a column).
const (
	Horizontal Axis = "horizontal"
	Vertical   Axis = "vertical"
)

// AlignPass forces the listed nodes onto one shared axis coordinate (the
// mean of their current positions) and redistributes them evenly along
// the other axis, preserving their current order.
type AlignPass struct {
	NodeIDs []string
	Axis    Axis
	Gap     float64
	Prio    int
}

// Name implements Pass.
func (p *AlignPass) Name() string { return "align:" + string(p.Axis) }

// Priority implements Pass.
func (p *AlignPass) Priority() int { return clampUserPriority(p.Prio) }

// Apply implements Pass.
func (p *AlignPass) Apply(d *graph.Diagram) {
	nodes := resolveNodes(d, p.NodeIDs)
	if len(nodes) < 2 {
		return
	}

	if p.Axis == Horizontal {
		meanY := 0.0
		for _, n := range nodes {
			meanY += n.Y
		}
		meanY /= float64(len(nodes))

		sortByCoord(nodes, func(n *graph.Node) float64 { return n.X })
		x := nodes[0].X
		for _, n := range nodes {
			n.Y = meanY
			n.X = x
			x += n.Width + p.Gap
		}
	} else {
		meanX := 0.0
		for _, n := range nodes {
			meanX += n.X
		}
		meanX /= float64(len(nodes))

		sortByCoord(nodes, func(n *graph.Node) float64 { return n.Y })
		y := nodes[0].Y
		for _, n := range nodes {
			n.X = meanX
			n.Y = y
			y += n.Height + p.Gap
		}
	}
}

// =============================================================================
// Grouping (user-declared)
// =============================================================================

// Arrangement names the shape a GroupPass arranges its nodes into.
type Arrangement string

// Supported arrangements.
const (
	ArrangeRow     Arrangement = "row"
	ArrangeColumn  Arrangement = "column"
	ArrangeGrid    Arrangement = "grid"
	ArrangeCluster Arrangement = "cluster"
)

// GroupPass rearranges a node subset around its current centroid. The
// centroid is preserved, so grouping does not drift the subset across
// the canvas under repeated application.
type GroupPass struct {
	NodeIDs     []string
	Arrangement Arrangement
	Gap         float64
	Prio        int
}

// Name implements Pass.
func (p *GroupPass) Name() string { return "group:" + string(p.Arrangement) }

// Priority implements Pass.
func (p *GroupPass) Priority() int { return clampUserPriority(p.Prio) }

// Apply implements Pass.
func (p *GroupPass) Apply(d *graph.Diagram) {
	nodes := resolveNodes(d, p.NodeIDs)
	if len(nodes) == 0 {
		return
	}

	var cx, cy float64
	for _, n := range nodes {
		cx += n.X
		cy += n.Y
	}
	cx /= float64(len(nodes))
	cy /= float64(len(nodes))

	switch p.Arrangement {
	case ArrangeColumn:
		arrangeLine(nodes, cx, cy, p.Gap, false)
	case ArrangeGrid:
		arrangeGrid(nodes, cx, cy, p.Gap)
	case ArrangeCluster:
		arrangeCircle(nodes, cx, cy, p.Gap)
	default:
		arrangeLine(nodes, cx, cy, p.Gap, true)
	}
}

// =============================================================================
// Internal Helpers
// =============================================================================

func resolveNodes(d *graph.Diagram, ids []string) []*graph.Node {
	out := make([]*graph.Node, 0, len(ids))
	for _, id := range ids {
		if n := d.Node(id); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// sortByCoord sorts nodes by a coordinate, breaking ties by ID so the
// order is stable across runs.
func sortByCoord(nodes []*graph.Node, coord func(*graph.Node) float64) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0; j-- {
			a, b := nodes[j-1], nodes[j]
			if coord(a) < coord(b) || (coord(a) == coord(b) && a.ID <= b.ID) {
				break
			}
			nodes[j-1], nodes[j] = b, a
		}
	}
}

// arrangeLine places nodes in a single row (horizontal) or column,
// centered on (cx, cy).
func arrangeLine(nodes []*graph.Node, cx, cy, gap float64, horizontal bool) {
	var total float64
	for _, n := range nodes {
		if horizontal {
			total += n.Width
		} else {
			total += n.Height
		}
	}
	total += float64(len(nodes)-1) * gap

	pos := -total / 2
	for _, n := range nodes {
		if horizontal {
			n.X = cx + pos + n.Width/2
			n.Y = cy
			pos += n.Width + gap
		} else {
			n.X = cx
			n.Y = cy + pos + n.Height/2
			pos += n.Height + gap
		}
	}
}

// arrangeGrid places nodes in a roughly square grid centered on (cx, cy).
func arrangeGrid(nodes []*graph.Node, cx, cy, gap float64) {
	cols := int(math.Ceil(math.Sqrt(float64(len(nodes)))))
	rows := (len(nodes) + cols - 1) / cols

	var cellW, cellH float64
	for _, n := range nodes {
		cellW = math.Max(cellW, n.Width)
		cellH = math.Max(cellH, n.Height)
	}
	cellW += gap
	cellH += gap

	originX := cx - float64(cols)*cellW/2 + cellW/2
	originY := cy - float64(rows)*cellH/2 + cellH/2
	for i, n := range nodes {
		n.X = originX + float64(i%cols)*cellW
		n.Y = originY + float64(i/cols)*cellH
	}
}

// arrangeCircle places nodes evenly on a circle around (cx, cy), radius
// scaling with the member count.
func arrangeCircle(nodes []*graph.Node, cx, cy, gap float64) {
	if len(nodes) == 1 {
		nodes[0].X = cx
		nodes[0].Y = cy
		return
	}
	radius := gap + float64(len(nodes))*gap/2
	step := 2 * math.Pi / float64(len(nodes))
	for i, n := range nodes {
		angle := -math.Pi/2 + float64(i)*step
		n.X = cx + radius*math.Cos(angle)
		n.Y = cy + radius*math.Sin(angle)
	}
}
