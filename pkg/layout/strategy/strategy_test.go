package strategy

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/classify"
	"github.com/archflowhq/archflow/pkg/layout/config"
	"github.com/archflowhq/archflow/pkg/layout/tier"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func testConfig() config.Config {
	cfg := config.Default(5)
	cfg.Padding = 100
	cfg.LayerSpacing = 200
	return cfg
}

func pipelineDiagram() *graph.Diagram {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", Width: 120, Height: 70},
			{ID: "b", Width: 120, Height: 70},
			{ID: "c", Width: 120, Height: 70},
		},
		Links: []graph.Link{
			{ID: "l1", Source: "a", Target: "b"},
			{ID: "l2", Source: "b", Target: "c"},
		},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
	return d
}

func TestPipelinePositions(t *testing.T) {
	d := pipelineDiagram()
	plan := tier.Assign(d)
	cfg := testConfig()

	Apply(d, plan, KindPipeline, cfg)

	wantX := []float64{100, 300, 500}
	for i, id := range []string{"a", "b", "c"} {
		n := d.Node(id)
		if !almostEqual(n.X, wantX[i]) {
			t.Errorf("%s.X = %v, want %v", id, n.X, wantX[i])
		}
	}
	if !almostEqual(d.Node("a").Y, d.Node("b").Y) || !almostEqual(d.Node("b").Y, d.Node("c").Y) {
		t.Error("pipeline nodes must share one y coordinate")
	}
}

func TestRadialHubAndSpokes(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "hub", Width: 120, Height: 70},
			{ID: "s1", Width: 120, Height: 70},
			{ID: "s2", Width: 120, Height: 70},
			{ID: "s3", Width: 120, Height: 70},
			{ID: "s4", Width: 120, Height: 70},
		},
		Links: []graph.Link{
			{ID: "l1", Source: "hub", Target: "s1"},
			{ID: "l2", Source: "hub", Target: "s2"},
			{ID: "l3", Source: "hub", Target: "s3"},
			{ID: "l4", Source: "hub", Target: "s4"},
		},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
	plan := tier.Assign(d)
	cfg := testConfig()

	Apply(d, plan, KindRadial, cfg)

	hub := d.Node("hub")
	if !almostEqual(hub.X, 800) || !almostEqual(hub.Y, 500) {
		t.Errorf("hub at (%v, %v), want canvas center (800, 500)", hub.X, hub.Y)
	}

	var radii, angles []float64
	for _, id := range []string{"s1", "s2", "s3", "s4"} {
		n := d.Node(id)
		dx, dy := n.X-hub.X, n.Y-hub.Y
		radii = append(radii, math.Hypot(dx, dy))
		angles = append(angles, math.Atan2(dy, dx))
	}

	for i := 1; i < len(radii); i++ {
		if !almostEqual(radii[i], radii[0]) {
			t.Errorf("spoke %d radius %v differs from %v", i, radii[i], radii[0])
		}
	}
	for i := 1; i < len(angles); i++ {
		diff := math.Mod(angles[i]-angles[i-1]+2*math.Pi, 2*math.Pi)
		if !almostEqual(diff, math.Pi/2) {
			t.Errorf("angular gap %d = %v rad, want π/2", i, diff)
		}
	}
	// First spoke points straight up.
	if !almostEqual(angles[0], -math.Pi/2) {
		t.Errorf("first spoke angle = %v, want -π/2", angles[0])
	}
}

func TestTieredRowsCentered(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "top", Width: 200, Height: 70},
			{ID: "left", Width: 120, Height: 70},
			{ID: "right", Width: 120, Height: 70},
		},
		Links: []graph.Link{
			{ID: "l1", Source: "top", Target: "left"},
			{ID: "l2", Source: "top", Target: "right"},
		},
		Canvas: graph.Canvas{Width: 1000, Height: 800},
	}
	plan := tier.Assign(d)
	cfg := testConfig()
	cfg.NodeMinWidth = 100 // keep explicit widths

	Apply(d, plan, KindTiered, cfg)

	if !almostEqual(d.Node("top").X, 500) {
		t.Errorf("lone top node X = %v, want centered 500", d.Node("top").X)
	}

	// Second row: total = 120 + gap + 120, centered on 500.
	total := 120 + cfg.NodeGap + 120
	wantLeft := (1000-total)/2 + 60
	if !almostEqual(d.Node("left").X, wantLeft) {
		t.Errorf("left.X = %v, want %v", d.Node("left").X, wantLeft)
	}
	if d.Node("left").Y != d.Node("right").Y {
		t.Error("row members must share y")
	}
	if !almostEqual(d.Node("right").Y-d.Node("top").Y, cfg.LayerSpacing) {
		t.Errorf("layer gap = %v, want %v", d.Node("right").Y-d.Node("top").Y, cfg.LayerSpacing)
	}
}

func TestGridRoughlySquare(t *testing.T) {
	d := &graph.Diagram{Canvas: graph.Canvas{Width: 2000, Height: 2000}}
	for i := 0; i < 9; i++ {
		d.Nodes = append(d.Nodes, graph.Node{ID: fmt.Sprintf("n%d", i), Width: 100, Height: 50})
	}
	plan := tier.Assign(d)
	cfg := testConfig()

	Apply(d, plan, KindGrid, cfg)

	// 9 nodes → 3 columns: nodes 0..2 share a row, 0/3/6 share a column.
	if d.Nodes[0].Y != d.Nodes[1].Y || d.Nodes[1].Y != d.Nodes[2].Y {
		t.Error("first three nodes should share a row")
	}
	if d.Nodes[0].X != d.Nodes[3].X || d.Nodes[3].X != d.Nodes[6].X {
		t.Error("every third node should share a column")
	}
	if d.Nodes[3].Y <= d.Nodes[0].Y {
		t.Error("second row should be below the first")
	}
}

func TestGridMaxColumnsCap(t *testing.T) {
	d := &graph.Diagram{Canvas: graph.Canvas{Width: 2000, Height: 2000}}
	for i := 0; i < 9; i++ {
		d.Nodes = append(d.Nodes, graph.Node{ID: fmt.Sprintf("n%d", i), Width: 100, Height: 50})
	}
	cfg := testConfig()
	cfg.GridMaxColumns = 2

	Apply(d, tier.Assign(d), KindGrid, cfg)

	if d.Nodes[0].Y != d.Nodes[1].Y {
		t.Error("nodes 0 and 1 should share the first row")
	}
	if d.Nodes[2].Y == d.Nodes[0].Y {
		t.Error("node 2 should wrap to the second row with a 2-column cap")
	}
}

func TestClusteredGroupsStayTogether(t *testing.T) {
	d := &graph.Diagram{Canvas: graph.Canvas{Width: 2000, Height: 2000}}
	for i := 0; i < 4; i++ {
		d.Nodes = append(d.Nodes, graph.Node{ID: fmt.Sprintf("a%d", i), Type: "service", Width: 100, Height: 50})
	}
	for i := 0; i < 4; i++ {
		d.Nodes = append(d.Nodes, graph.Node{ID: fmt.Sprintf("b%d", i), Type: "database", Width: 100, Height: 50})
	}

	Apply(d, tier.Assign(d), KindClustered, testConfig())

	centroid := func(prefix string) (float64, float64) {
		var sx, sy float64
		for _, n := range d.Nodes {
			if n.Type == prefix {
				sx += n.X
				sy += n.Y
			}
		}
		return sx / 4, sy / 4
	}
	ax, ay := centroid("service")
	bx, by := centroid("database")
	if math.Hypot(bx-ax, by-ay) < 100 {
		t.Error("cluster centroids should be separated")
	}

	// Every member sits near its own centroid.
	for _, n := range d.Nodes {
		cx, cy := ax, ay
		if n.Type == "database" {
			cx, cy = bx, by
		}
		if math.Hypot(n.X-cx, n.Y-cy) > 400 {
			t.Errorf("%s strayed from its cluster", n.ID)
		}
	}
}

func TestApplyDeterministic(t *testing.T) {
	for _, kind := range []Kind{KindPipeline, KindTiered, KindRadial, KindGrid, KindClustered} {
		d1 := pipelineDiagram()
		d2 := pipelineDiagram()
		plan1 := tier.Assign(d1)
		plan2 := tier.Assign(d2)
		cfg := testConfig()

		Apply(d1, plan1, kind, cfg)
		Apply(d2, plan2, kind, cfg)

		if !reflect.DeepEqual(d1.Nodes, d2.Nodes) {
			t.Errorf("strategy %v is not deterministic", kind)
		}
	}
}

func TestResizeForLabels(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "short", Label: "DB", Width: 160, Height: 70},
			{ID: "long", Label: "Extremely Long Component Name For Testing", Width: 160, Height: 70},
		},
	}
	cfg := testConfig()

	ResizeForLabels(d, cfg)

	if d.Nodes[0].Width != 160 {
		t.Errorf("short label should keep width, got %v", d.Nodes[0].Width)
	}
	if d.Nodes[1].Width <= 160 {
		t.Errorf("long label should widen the node, got %v", d.Nodes[1].Width)
	}
	if d.Nodes[1].Height != 70 {
		t.Error("resize must not change height")
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name        string
		res         classify.Result
		hasLayering bool
		want        Kind
	}{
		{"pipeline", classify.Result{Pattern: classify.PatternPipeline}, true, KindPipeline},
		{"hub", classify.Result{Pattern: classify.PatternHubSpoke}, true, KindRadial},
		{"microservices", classify.Result{Pattern: classify.PatternMicroservices}, true, KindClustered},
		{"layered", classify.Result{Pattern: classify.PatternLayered}, true, KindTiered},
		{"no layering with links", classify.Result{LinkCount: 3}, false, KindForce},
		{"no layering no links", classify.Result{}, false, KindGrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Select(tt.res, tt.hasLayering); got != tt.want {
				t.Errorf("Select = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindGrid, KindPipeline, KindTiered, KindRadial, KindClustered, KindForce} {
		got, err := Parse(kind.String())
		if err != nil {
			t.Errorf("Parse(%q): %v", kind.String(), err)
		}
		if got != kind {
			t.Errorf("Parse(%q) = %v, want %v", kind.String(), got, kind)
		}
	}
	if _, err := Parse("sausage"); err == nil {
		t.Error("expected error for unknown strategy name")
	}
}
