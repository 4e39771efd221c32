package tier

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/archflowhq/archflow/pkg/graph"
)

func intp(v int) *int { return &v }

func TestAssignTopological(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Links: []graph.Link{
			{ID: "l1", Source: "a", Target: "b"},
			{ID: "l2", Source: "b", Target: "c"},
		},
	}

	plan := Assign(d)

	want := map[string]int{"a": 0, "b": 1, "c": 2}
	if !reflect.DeepEqual(plan.Layers, want) {
		t.Errorf("Layers = %v, want %v", plan.Layers, want)
	}
	if plan.LayerCount() != 3 {
		t.Errorf("LayerCount = %d, want 3", plan.LayerCount())
	}
}

func TestAssignDiamond(t *testing.T) {
	// a fans out to b and c, both converge on d.
	d := &graph.Diagram{
		Nodes: []graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		Links: []graph.Link{
			{ID: "l1", Source: "a", Target: "b"},
			{ID: "l2", Source: "a", Target: "c"},
			{ID: "l3", Source: "b", Target: "d"},
			{ID: "l4", Source: "c", Target: "d"},
		},
	}

	plan := Assign(d)

	if plan.Layer("a") != 0 || plan.Layer("b") != 1 || plan.Layer("c") != 1 || plan.Layer("d") != 2 {
		t.Errorf("Layers = %v", plan.Layers)
	}
}

func TestAssignCycleTerminatesDeterministically(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{{ID: "x"}, {ID: "y"}, {ID: "z"}},
		Links: []graph.Link{
			{ID: "l1", Source: "x", Target: "y"},
			{ID: "l2", Source: "y", Target: "z"},
			{ID: "l3", Source: "z", Target: "x"},
		},
	}

	first := Assign(d)

	// Shuffling link order must not change the stabilized assignment.
	d.Links[0], d.Links[2] = d.Links[2], d.Links[0]
	second := Assign(d)

	if !reflect.DeepEqual(first.Layers, second.Layers) {
		t.Errorf("cycle layering depends on link order: %v vs %v", first.Layers, second.Layers)
	}
}

func TestAssignContainerDriven(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "web", ContainerID: "front"},
			{ID: "api", ContainerID: "back"},
			{ID: "db", ContainerID: "back"},
		},
		Containers: []graph.Container{
			{ID: "front", Children: []string{"web"}},
			{ID: "back", Children: []string{"api", "db"}},
		},
	}

	plan := Assign(d)

	if plan.Layer("web") != 0 {
		t.Errorf("web layer = %d, want 0", plan.Layer("web"))
	}
	if plan.Layer("api") != 1 || plan.Layer("db") != 1 {
		t.Errorf("api/db layers = %d/%d, want 1/1", plan.Layer("api"), plan.Layer("db"))
	}
}

func TestAssignExplicitLayersWin(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "a", Layer: intp(2)},
			{ID: "b", Layer: intp(0)},
		},
		Links: []graph.Link{{ID: "l1", Source: "a", Target: "b"}},
	}

	plan := Assign(d)

	// Sparse explicit layers are compacted but their order is kept.
	if plan.Layer("b") != 0 || plan.Layer("a") != 1 {
		t.Errorf("Layers = %v, want b=0 a=1", plan.Layers)
	}
}

func TestAssignRoleFallback(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{
			{ID: "n1", Label: "Web UI", Type: "frontend"},
			{ID: "n2", Label: "Orders API", Type: "service"},
			{ID: "n3", Label: "Orders DB", Type: "database"},
		},
	}

	plan := Assign(d)

	if plan.Layer("n1") != 0 || plan.Layer("n2") != 1 || plan.Layer("n3") != 2 {
		t.Errorf("Layers = %v, want frontend=0 service=1 database=2", plan.Layers)
	}
}

func TestRowsPreserveFirstSeenOrder(t *testing.T) {
	d := &graph.Diagram{
		Nodes: []graph.Node{{ID: "c"}, {ID: "a"}, {ID: "b"}},
	}

	plan := Assign(d)

	if got := plan.Rows[0]; !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("Rows[0] = %v, want input order", got)
	}
}

func TestAssignLargeChainBoundedPasses(t *testing.T) {
	// A long chain needs one pass per layer; the cap must not cut it short.
	const n = 50
	d := &graph.Diagram{}
	for i := 0; i < n; i++ {
		d.Nodes = append(d.Nodes, graph.Node{ID: fmt.Sprintf("n%02d", i)})
	}
	for i := 0; i < n-1; i++ {
		d.Links = append(d.Links, graph.Link{
			ID:     fmt.Sprintf("l%02d", i),
			Source: fmt.Sprintf("n%02d", i),
			Target: fmt.Sprintf("n%02d", i+1),
		})
	}

	plan := Assign(d)

	if plan.Layer(fmt.Sprintf("n%02d", n-1)) != n-1 {
		t.Errorf("tail layer = %d, want %d", plan.Layer(fmt.Sprintf("n%02d", n-1)), n-1)
	}
}
