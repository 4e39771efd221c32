package label

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/archflowhq/archflow/pkg/geometry"
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/config"
)

func testConfig() config.Config { return config.Default(5) }

func labeledLink(id, lbl string, path ...geometry.Point) graph.Link {
	return graph.Link{ID: id, Source: "a", Target: "b", Label: lbl, Path: path}
}

func TestPlaceSingleLabelAtMidpoint(t *testing.T) {
	d := &graph.Diagram{
		Links: []graph.Link{
			labeledLink("l1", "calls", geometry.Point{X: 0, Y: 500}, geometry.Point{X: 400, Y: 500}),
		},
	}

	Place(d, testConfig())

	anchor := d.Links[0].LabelAnchor
	if anchor == nil {
		t.Fatal("label anchor not set")
	}
	if anchor.X != 200 || anchor.Y != 500 {
		t.Errorf("anchor = %+v, want path midpoint (200, 500)", anchor)
	}
}

func TestPlaceSkipsUnlabeledLinks(t *testing.T) {
	d := &graph.Diagram{
		Links: []graph.Link{
			{ID: "l1", Source: "a", Target: "b", Path: []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}},
		},
	}

	Place(d, testConfig())

	if d.Links[0].LabelAnchor != nil {
		t.Error("unlabeled link should have no anchor")
	}
}

func TestPlaceAvoidsNodeBoxes(t *testing.T) {
	// A node sits on the path midpoint; the label must move off it.
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "blocker", X: 200, Y: 500, Width: 200, Height: 100},
		},
		Links: []graph.Link{
			labeledLink("l1", "calls", geometry.Point{X: 0, Y: 500}, geometry.Point{X: 400, Y: 500}),
		},
	}
	cfg := testConfig()

	Place(d, cfg)

	anchor := d.Links[0].LabelAnchor
	if anchor == nil {
		t.Fatal("label anchor not set")
	}
	w := float64(len("calls"))*cfg.LabelCharWidth + cfg.LabelPadding*2
	r := geometry.RectFromCenter(*anchor, w, cfg.LabelHeight).Expand(cfg.LabelPadding)
	if r.Overlaps(d.Nodes[0].Box(), 0) {
		t.Errorf("label rect %+v overlaps the node box", r)
	}
}

func TestPlaceSeparatesStackedLabels(t *testing.T) {
	// Three labels on the same midpoint must end up pairwise separated.
	d := &graph.Diagram{}
	for i := 0; i < 3; i++ {
		d.Links = append(d.Links, labeledLink(
			fmt.Sprintf("l%d", i), "label",
			geometry.Point{X: 0, Y: 500}, geometry.Point{X: 400, Y: 500},
		))
	}
	cfg := testConfig()

	Place(d, cfg)

	if pairs := overlappingPairs(d, cfg); pairs != 0 {
		t.Errorf("overlapping label pairs = %d, want 0", pairs)
	}
}

func TestFallbackIsDeterministicAndSpread(t *testing.T) {
	// One candidate only: every label after the first falls back.
	d := &graph.Diagram{}
	for i := 0; i < 4; i++ {
		d.Links = append(d.Links, labeledLink(
			fmt.Sprintf("l%d", i), "x",
			geometry.Point{X: 0, Y: 500}, geometry.Point{X: 400, Y: 500},
		))
	}
	cfg := testConfig()

	PlaceWithCandidates(d, cfg, 1)

	anchors := make(map[geometry.Point]bool)
	for _, l := range d.Links {
		if l.LabelAnchor == nil {
			t.Fatal("fallback must still register an anchor")
		}
		anchors[*l.LabelAnchor] = true
	}
	if len(anchors) < 3 {
		t.Errorf("fallback anchors should spread, got %d distinct of 4", len(anchors))
	}
}

func TestMoreCandidatesNeverMoreCollisions(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := testConfig()

	for trial := 0; trial < 20; trial++ {
		base := &graph.Diagram{}
		count := 4 + rng.Intn(8)
		for i := 0; i < count; i++ {
			x := rng.Float64() * 600
			y := rng.Float64() * 400
			base.Links = append(base.Links, labeledLink(
				fmt.Sprintf("l%d", i), "service call",
				geometry.Point{X: x, Y: y}, geometry.Point{X: x + 200, Y: y},
			))
		}

		prev := -1
		for _, limit := range []int{1, 3, 5, 9, 13} {
			d := base.Clone()
			PlaceWithCandidates(d, cfg, limit)
			pairs := overlappingPairs(d, cfg)
			if prev >= 0 && pairs > prev {
				t.Fatalf("trial %d: %d candidates gave %d pairs, fewer candidates gave %d",
					trial, limit, pairs, prev)
			}
			prev = pairs
		}
	}
}

func TestPlaceDeterministic(t *testing.T) {
	build := func() *graph.Diagram {
		d := &graph.Diagram{}
		for i := 0; i < 5; i++ {
			d.Links = append(d.Links, labeledLink(
				fmt.Sprintf("l%d", i), "reads",
				geometry.Point{X: float64(i) * 50, Y: 300}, geometry.Point{X: float64(i)*50 + 300, Y: 300},
			))
		}
		return d
	}

	d1, d2 := build(), build()
	Place(d1, testConfig())
	Place(d2, testConfig())

	if !reflect.DeepEqual(d1.Links, d2.Links) {
		t.Error("label placement must be deterministic")
	}
}

func TestPathMidpointOrthogonal(t *testing.T) {
	// L-shaped path of length 200: midpoint is at the corner.
	mid := pathMidpoint([]geometry.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100},
	})
	if mid.X != 100 || mid.Y != 0 {
		t.Errorf("midpoint = %+v, want the corner (100, 0)", mid)
	}
}

// overlappingPairs counts label pairs whose padded rectangles intersect.
func overlappingPairs(d *graph.Diagram, cfg config.Config) int {
	var rects []geometry.Rect
	for _, l := range d.Links {
		if l.LabelAnchor == nil {
			continue
		}
		w := float64(len(l.Label))*cfg.LabelCharWidth + cfg.LabelPadding*2
		rects = append(rects, geometry.RectFromCenter(*l.LabelAnchor, w, cfg.LabelHeight).Expand(cfg.LabelPadding))
	}
	pairs := 0
	for i := 0; i < len(rects); i++ {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Overlaps(rects[j], 0) {
				pairs++
			}
		}
	}
	return pairs
}
