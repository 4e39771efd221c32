package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/archflowhq/archflow/pkg/cache"
	"github.com/archflowhq/archflow/pkg/graph"
)

func testDiagram() *graph.Diagram {
	return &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
			{ID: "c", Label: "C"},
		},
		Links: []graph.Link{
			{ID: "ab", Source: "a", Target: "b"},
			{ID: "bc", Source: "b", Target: "c"},
		},
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second validation should be a no-op: %v", err)
	}
}

func TestOptionsRejectsBadFormat(t *testing.T) {
	opts := Options{Formats: []string{"png"}}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("png is not a supported format")
	}
}

func TestOptionsRejectsBadStrategy(t *testing.T) {
	opts := Options{Strategy: "spiral"}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("unknown strategy should be rejected")
	}
}

func TestExecuteProducesJSONArtifact(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	res, err := r.Execute(context.Background(), testDiagram(), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Strategy == "" {
		t.Error("result should carry the chosen strategy")
	}
	if res.GraphHash == "" {
		t.Error("result should carry the graph hash")
	}
	if res.Stats.NodeCount != 3 || res.Stats.LinkCount != 2 {
		t.Errorf("stats = %+v, want 3 nodes / 2 links", res.Stats)
	}

	data, ok := res.Artifacts[FormatJSON]
	if !ok {
		t.Fatal("json artifact missing")
	}
	out, err := graph.Unmarshal(data)
	if err != nil {
		t.Fatalf("artifact should be a diagram: %v", err)
	}
	for _, n := range out.Nodes {
		if n.X == 0 && n.Y == 0 {
			t.Errorf("node %s still at the origin; diagram not positioned", n.ID)
		}
	}
}

func TestExecuteDOTArtifact(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	res, err := r.Execute(context.Background(), testDiagram(), Options{Formats: []string{FormatDOT}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	dotSrc := string(res.Artifacts[FormatDOT])
	if !strings.Contains(dotSrc, "digraph G {") {
		t.Errorf("dot artifact malformed:\n%s", dotSrc)
	}
}

func TestExecuteLayoutCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	ctx := context.Background()
	first, err := r.Execute(ctx, testDiagram(), Options{})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("first run should miss the layout cache")
	}

	second, err := r.Execute(ctx, testDiagram(), Options{})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run should hit the layout cache")
	}
	if !second.CacheInfo.ExportHit {
		t.Error("second run should hit the export cache")
	}
	if second.Strategy != first.Strategy {
		t.Errorf("cached strategy %q differs from computed %q", second.Strategy, first.Strategy)
	}

	// Refresh bypasses the cache
	third, err := r.Execute(ctx, testDiagram(), Options{Refresh: true})
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("refresh run should not report a cache hit")
	}
}

func TestExecuteForcedStrategy(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	res, err := r.Execute(context.Background(), testDiagram(), Options{Strategy: "grid"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Strategy != "grid" {
		t.Errorf("strategy = %q, want forced grid", res.Strategy)
	}
}

func TestRouteRecomputesPaths(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", X: 200, Y: 500, Width: 160, Height: 70},
			{ID: "b", X: 700, Y: 500, Width: 160, Height: 70},
		},
		Links:  []graph.Link{{ID: "ab", Source: "a", Target: "b"}},
		Canvas: graph.Canvas{Width: 1600, Height: 1000},
	}
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	out, err := r.Route(context.Background(), d, Options{})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(out.Links[0].Path) == 0 {
		t.Error("route should populate link paths")
	}
	if out.Nodes[0].X != 200 || out.Nodes[1].X != 700 {
		t.Error("route must not move nodes")
	}
}
