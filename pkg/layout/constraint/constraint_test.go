package constraint

import (
	"math"
	"reflect"
	"testing"

	"github.com/archflowhq/archflow/pkg/graph"
)

func twoNodes(ax, ay, bx, by float64) *graph.Diagram {
	return &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: ax, Y: ay, Width: 100, Height: 50},
			{ID: "b", X: bx, Y: by, Width: 100, Height: 50},
		},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
}

func TestMinSpacingPushesApart(t *testing.T) {
	d := twoNodes(500, 500, 540, 510)
	pass := &MinSpacingPass{Spacing: 100}

	pass.Apply(d)

	dx := d.Nodes[1].X - d.Nodes[0].X
	if !(dx >= 100-1e-9) {
		t.Errorf("x separation = %v, want >= 100", dx)
	}
	// Push is symmetric: midpoint preserved.
	mid := (d.Nodes[0].X + d.Nodes[1].X) / 2
	if math.Abs(mid-520) > 1e-9 {
		t.Errorf("midpoint = %v, want 520", mid)
	}
}

func TestMinSpacingLeavesDistantPairs(t *testing.T) {
	d := twoNodes(200, 200, 600, 200)
	pass := &MinSpacingPass{Spacing: 100}

	pass.Apply(d)

	if d.Nodes[0].X != 200 || d.Nodes[1].X != 600 {
		t.Error("distant pair should not move")
	}
}

func TestMinSpacingIdempotent(t *testing.T) {
	d := twoNodes(500, 500, 520, 505)
	pass := &MinSpacingPass{Spacing: 100}

	pass.Apply(d)
	snapshot := append([]graph.Node(nil), d.Nodes...)
	pass.Apply(d)

	if !reflect.DeepEqual(snapshot, d.Nodes) {
		t.Errorf("second application moved nodes: %+v vs %+v", snapshot, d.Nodes)
	}
}

func TestMinSpacingChainReachesFixedPoint(t *testing.T) {
	// Three collinear nodes closer than Spacing: separating (a,b) can
	// re-violate (b,c), so a single sweep is not enough.
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 0, Y: 500, Width: 100, Height: 50},
			{ID: "b", X: 50, Y: 500, Width: 100, Height: 50},
			{ID: "c", X: 100, Y: 500, Width: 100, Height: 50},
		},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
	pass := &MinSpacingPass{Spacing: 100}

	pass.Apply(d)

	for i := 0; i < len(d.Nodes); i++ {
		for j := i + 1; j < len(d.Nodes); j++ {
			dx := math.Abs(d.Nodes[j].X - d.Nodes[i].X)
			dy := math.Abs(d.Nodes[j].Y - d.Nodes[i].Y)
			if dx < 100-1e-9 && dy < 100-1e-9 {
				t.Errorf("pair (%s,%s) still violates spacing: dx=%v dy=%v",
					d.Nodes[i].ID, d.Nodes[j].ID, dx, dy)
			}
		}
	}

	snapshot := append([]graph.Node(nil), d.Nodes...)
	pass.Apply(d)
	if !reflect.DeepEqual(snapshot, d.Nodes) {
		t.Errorf("second application moved nodes: %+v vs %+v", snapshot, d.Nodes)
	}
}

func TestMinSpacingCoincidentNodes(t *testing.T) {
	d := twoNodes(500, 500, 500, 500)
	pass := &MinSpacingPass{Spacing: 100}

	pass.Apply(d)

	if d.Nodes[0].X == d.Nodes[1].X && d.Nodes[0].Y == d.Nodes[1].Y {
		t.Error("coincident nodes must be separated")
	}
}

func TestBoundaryClampsIntoCanvas(t *testing.T) {
	d := twoNodes(-200, 500, 5000, 500)
	pass := &BoundaryPass{Padding: 50}

	pass.Apply(d)

	for _, n := range d.Nodes {
		box := n.Box()
		if box.Left < 50-1e-9 || box.Right > d.Canvas.Width-50+1e-9 {
			t.Errorf("%s box %+v escapes the padded canvas", n.ID, box)
		}
	}
}

func TestBoundaryIdempotent(t *testing.T) {
	d := twoNodes(-200, 500, 5000, 500)
	pass := &BoundaryPass{Padding: 50}

	pass.Apply(d)
	snapshot := append([]graph.Node(nil), d.Nodes...)
	pass.Apply(d)

	if !reflect.DeepEqual(snapshot, d.Nodes) {
		t.Error("boundary pass is not idempotent")
	}
}

func TestRelativeLeftOf(t *testing.T) {
	d := twoNodes(800, 500, 400, 500)
	pass := &RelativePass{NodeID: "a", Anchor: "b", Relation: LeftOf, MinDistance: 150, Prio: 25}

	pass.Apply(d)

	if got := d.Node("a").X; got != 250 {
		t.Errorf("a.X = %v, want 250 (b.X - 150)", got)
	}
	if d.Node("b").X != 400 {
		t.Error("anchor must not move")
	}
}

func TestRelativeSatisfiedIsNoOp(t *testing.T) {
	d := twoNodes(100, 500, 400, 500)
	pass := &RelativePass{NodeID: "a", Anchor: "b", Relation: LeftOf, MinDistance: 150}

	pass.Apply(d)

	if d.Node("a").X != 100 {
		t.Error("already-satisfied constraint should not move the node")
	}
}

func TestRelativeDanglingIDsSkipped(t *testing.T) {
	d := twoNodes(100, 500, 400, 500)
	pass := &RelativePass{NodeID: "ghost", Anchor: "b", Relation: Below, MinDistance: 10}

	pass.Apply(d) // must not panic
}

func TestAlignHorizontal(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 100, Y: 100, Width: 100, Height: 50},
			{ID: "b", X: 300, Y: 200, Width: 100, Height: 50},
			{ID: "c", X: 500, Y: 300, Width: 100, Height: 50},
		},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
	pass := &AlignPass{NodeIDs: []string{"a", "b", "c"}, Axis: Horizontal, Gap: 40, Prio: 30}

	pass.Apply(d)

	if d.Nodes[0].Y != 200 || d.Nodes[1].Y != 200 || d.Nodes[2].Y != 200 {
		t.Errorf("aligned Ys = %v %v %v, want mean 200", d.Nodes[0].Y, d.Nodes[1].Y, d.Nodes[2].Y)
	}
	if d.Nodes[1].X-d.Nodes[0].X != 140 || d.Nodes[2].X-d.Nodes[1].X != 140 {
		t.Errorf("redistributed Xs = %v %v %v, want 140 apart", d.Nodes[0].X, d.Nodes[1].X, d.Nodes[2].X)
	}
}

func TestAlignIdempotent(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 100, Y: 100, Width: 100, Height: 50},
			{ID: "b", X: 300, Y: 250, Width: 100, Height: 50},
		},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
	pass := &AlignPass{NodeIDs: []string{"a", "b"}, Axis: Vertical, Gap: 30}

	pass.Apply(d)
	snapshot := append([]graph.Node(nil), d.Nodes...)
	pass.Apply(d)

	if !reflect.DeepEqual(snapshot, d.Nodes) {
		t.Error("align pass is not idempotent")
	}
}

func TestGroupRowPreservesCentroid(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 100, Y: 100, Width: 100, Height: 50},
			{ID: "b", X: 300, Y: 300, Width: 100, Height: 50},
		},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
	pass := &GroupPass{NodeIDs: []string{"a", "b"}, Arrangement: ArrangeRow, Gap: 40, Prio: 40}

	pass.Apply(d)

	cx := (d.Nodes[0].X + d.Nodes[1].X) / 2
	cy := (d.Nodes[0].Y + d.Nodes[1].Y) / 2
	if math.Abs(cx-200) > 1e-9 || math.Abs(cy-200) > 1e-9 {
		t.Errorf("centroid = (%v, %v), want (200, 200)", cx, cy)
	}
	if d.Nodes[0].Y != d.Nodes[1].Y {
		t.Error("row arrangement should level the nodes")
	}
}

func TestGroupGrid(t *testing.T) {
	d := &graph.Diagram{Canvas: graph.Canvas{Width: 1600, Height: 1000}}
	ids := []string{"a", "b", "c", "d"}
	for i, id := range ids {
		d.Nodes = append(d.Nodes, graph.Node{ID: id, X: float64(i * 100), Y: 500, Width: 80, Height: 40})
	}
	pass := &GroupPass{NodeIDs: ids, Arrangement: ArrangeGrid, Gap: 20}

	pass.Apply(d)

	// 4 nodes → 2×2 grid: a/b share a row, a/c share a column.
	if d.Node("a").Y != d.Node("b").Y {
		t.Error("a and b should share a grid row")
	}
	if d.Node("a").X != d.Node("c").X {
		t.Error("a and c should share a grid column")
	}
}

func TestPipelineOrdering(t *testing.T) {
	d := twoNodes(-500, 500, -480, 500)

	// Added out of order; Run must sort by priority (spacing before clamp).
	p := NewPipeline(
		&BoundaryPass{Padding: 50},
		&MinSpacingPass{Spacing: 100},
	)
	p.Run(d)

	for _, n := range d.Nodes {
		if n.Box().Left < 50-1e-9 {
			t.Errorf("%s ended outside the canvas after the full pipeline", n.ID)
		}
	}
}

func TestUserPriorityClamped(t *testing.T) {
	low := &RelativePass{Prio: 3}
	high := &GroupPass{Prio: 99}
	if low.Priority() != PriorityUserMin {
		t.Errorf("low priority = %d, want clamped to %d", low.Priority(), PriorityUserMin)
	}
	if high.Priority() != PriorityUserMax {
		t.Errorf("high priority = %d, want clamped to %d", high.Priority(), PriorityUserMax)
	}
}
