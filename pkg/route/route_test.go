package route

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/archflowhq/archflow/pkg/geometry"
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/config"
)

func testConfig() config.Config { return config.Default(5) }

func horizontalPair() *graph.Diagram {
	return &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 200, Y: 500, Width: 100, Height: 60},
			{ID: "b", X: 600, Y: 500, Width: 100, Height: 60},
		},
		Links:  []graph.Link{{ID: "l1", Source: "a", Target: "b"}},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
}

func TestStraightPathWhenAligned(t *testing.T) {
	d := horizontalPair()

	Links(d, testConfig())

	path := d.Links[0].Path
	if len(path) != 2 {
		t.Fatalf("aligned nodes should get a 2-point path, got %d points", len(path))
	}
	if path[0].X != 250 || path[0].Y != 500 {
		t.Errorf("start = %+v, want right edge of a (250, 500)", path[0])
	}
	if path[1].X != 550 || path[1].Y != 500 {
		t.Errorf("end = %+v, want left edge of b (550, 500)", path[1])
	}
}

func TestOrthogonalPathWhenOffset(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 200, Y: 300, Width: 100, Height: 60},
			{ID: "b", X: 700, Y: 600, Width: 100, Height: 60},
		},
		Links:  []graph.Link{{ID: "l1", Source: "a", Target: "b"}},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}

	Links(d, testConfig())

	path := d.Links[0].Path
	if len(path) != 4 {
		t.Fatalf("offset nodes should get a 4-point orthogonal path, got %d", len(path))
	}
	// H-V-H: first segment horizontal, middle vertical, last horizontal.
	if path[0].Y != path[1].Y {
		t.Error("first segment should be horizontal")
	}
	if path[1].X != path[2].X {
		t.Error("middle segment should be vertical")
	}
	if path[2].Y != path[3].Y {
		t.Error("last segment should be horizontal")
	}
}

func TestConnectionPointsOnPerimeter(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 200, Y: 200, Width: 120, Height: 80},
			{ID: "b", X: 640, Y: 520, Width: 120, Height: 80},
		},
		Links:  []graph.Link{{ID: "l1", Source: "a", Target: "b"}},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}

	Links(d, testConfig())

	path := d.Links[0].Path
	checkOnPerimeter(t, d.Nodes[0], path[0])
	checkOnPerimeter(t, d.Nodes[1], path[len(path)-1])
}

func checkOnPerimeter(t *testing.T, n graph.Node, p geometry.Point) {
	t.Helper()
	box := n.Box()
	onV := (almostEq(p.X, box.Left) || almostEq(p.X, box.Right)) && p.Y >= box.Top-1e-6 && p.Y <= box.Bottom+1e-6
	onH := (almostEq(p.Y, box.Top) || almostEq(p.Y, box.Bottom)) && p.X >= box.Left-1e-6 && p.X <= box.Right+1e-6
	if !onV && !onH {
		t.Errorf("point %+v not on perimeter of %s (%+v)", p, n.ID, box)
	}
}

func almostEq(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestObstacleAvoidance(t *testing.T) {
	// A blocker sits exactly on the midpoint bend; the router must pick
	// a different bend candidate.
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 100, Y: 100, Width: 80, Height: 50},
			{ID: "b", X: 700, Y: 500, Width: 80, Height: 50},
			{ID: "wall", X: 400, Y: 300, Width: 80, Height: 50},
		},
		Links:  []graph.Link{{ID: "l1", Source: "a", Target: "b"}},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
	cfg := testConfig()

	Links(d, cfg)

	path := d.Links[0].Path
	if len(path) != 4 {
		t.Fatalf("expected orthogonal path, got %d points", len(path))
	}
	wall := d.Node("wall").Box()
	if wall.IntersectsSegment(path[1], path[2], cfg.ObstacleTolerance) {
		t.Errorf("middle segment %v-%v crosses the obstacle", path[1], path[2])
	}
}

func TestMidpointFallbackWhenBlocked(t *testing.T) {
	// Obstacles cover every candidate; the router must still emit the
	// midpoint path rather than fail.
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 100, Y: 100, Width: 80, Height: 50},
			{ID: "b", X: 700, Y: 500, Width: 80, Height: 50},
			{ID: "w1", X: 400, Y: 300, Width: 700, Height: 500},
		},
		Links:  []graph.Link{{ID: "l1", Source: "a", Target: "b"}},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}

	Links(d, testConfig())

	path := d.Links[0].Path
	if len(path) != 4 {
		t.Fatalf("expected fallback path, got %d points", len(path))
	}
	wantMid := (path[0].X + path[3].X) / 2
	if !almostEq(path[1].X, wantMid) {
		t.Errorf("fallback bend at %v, want midpoint %v", path[1].X, wantMid)
	}
}

func TestParallelLinksFanOut(t *testing.T) {
	d := horizontalPair()
	d.Links = []graph.Link{
		{ID: "l1", Source: "a", Target: "b"},
		{ID: "l2", Source: "b", Target: "a"},
	}

	Links(d, testConfig())

	p1 := d.Links[0].Path
	p2 := d.Links[1].Path
	if len(p1) == 0 || len(p2) == 0 {
		t.Fatal("both links should be routed")
	}
	if almostEq(p1[0].Y, p2[len(p2)-1].Y) {
		t.Error("bidirectional links should dock at separated points")
	}
}

func TestCurvatureOverridesBend(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 100, Y: 100, Width: 80, Height: 50},
			{ID: "b", X: 700, Y: 500, Width: 80, Height: 50},
		},
		Links:  []graph.Link{{ID: "l1", Source: "a", Target: "b", Curvature: 0.25}},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}

	Links(d, testConfig())

	path := d.Links[0].Path
	want := path[0].X + (path[3].X-path[0].X)*0.25
	if !almostEq(path[1].X, want) {
		t.Errorf("bend at %v, want curvature-derived %v", path[1].X, want)
	}
}

func TestPathDataRoundsCorners(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 200, Y: 300, Width: 100, Height: 60},
			{ID: "b", X: 700, Y: 600, Width: 100, Height: 60},
		},
		Links:  []graph.Link{{ID: "l1", Source: "a", Target: "b"}},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
	cfg := testConfig()

	Links(d, cfg)

	data := d.Links[0].PathData
	if !strings.HasPrefix(data, "M ") {
		t.Fatalf("descriptor should start with a move, got %q", data)
	}
	if n := strings.Count(data, "Q"); n != 2 {
		t.Errorf("4-point path should round both bends, got %d curves in %q", n, data)
	}
}

func TestPathDataStraightLineHasNoCurves(t *testing.T) {
	d := horizontalPair()

	Links(d, testConfig())

	data := d.Links[0].PathData
	if data != "M 250.00 500.00 L 550.00 500.00" {
		t.Errorf("aligned pair descriptor = %q", data)
	}
}

func TestPathDataZeroRadiusEmitsPolyline(t *testing.T) {
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}

	data := PathData(pts, 0)

	if strings.Contains(data, "Q") {
		t.Errorf("zero radius should emit line segments only, got %q", data)
	}
	if data != "M 0.00 0.00 L 100.00 0.00 L 100.00 100.00" {
		t.Errorf("descriptor = %q", data)
	}
}

func TestPathDataClampsRadiusToShortSegments(t *testing.T) {
	// Segments of length 10 with radius 50: the curve entry and exit
	// must stay within half the segment, not overshoot past the ends.
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}

	data := PathData(pts, 50)

	if data != "M 0.00 0.00 L 5.00 0.00 Q 10.00 0.00 10.00 5.00 L 10.00 10.00" {
		t.Errorf("descriptor = %q", data)
	}
}

func TestRoutingDeterministic(t *testing.T) {
	d1 := horizontalPair()
	d2 := horizontalPair()

	Links(d1, testConfig())
	Links(d2, testConfig())

	if !reflect.DeepEqual(d1.Links, d2.Links) {
		t.Error("routing must be deterministic")
	}
}

func TestRoutingDoesNotMoveNodes(t *testing.T) {
	d := horizontalPair()
	before := append([]graph.Node(nil), d.Nodes...)

	Links(d, testConfig())

	if !reflect.DeepEqual(before, d.Nodes) {
		t.Error("routing must not reposition nodes")
	}
}
