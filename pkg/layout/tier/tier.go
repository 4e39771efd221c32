// Package tier assigns each node an integer layer (tier) and an order
// within that layer, producing the Plan consumed by the position
// calculator.
//
// Three sources are consulted, in priority order:
//
//  1. Explicit layers carried by the input nodes.
//  2. Container membership: a container's position in the container list
//     becomes the layer of its member nodes.
//  3. Link topology: a bounded relaxation pass that promotes a link's
//     target below its source until the assignment stabilizes.
//
// Nodes untouched by any of the above fall back to a role heuristic over
// their type and label (presentation roles at the top, data roles at the
// bottom).
package tier

import (
	"sort"
	"strings"

	"github.com/archflowhq/archflow/pkg/graph"
)

// Plan is the intermediate layering artifact between tier assignment and
// position calculation.
type Plan struct {
	// Layers maps node ID to its assigned layer (0 = root).
	Layers map[string]int

	// Rows lists node IDs per layer, in first-seen input order. Index i
	// holds layer i; every row is non-empty except in the degenerate
	// empty-graph case where Rows is empty.
	Rows [][]string
}

// LayerCount returns the number of distinct layers.
func (p *Plan) LayerCount() int { return len(p.Rows) }

// Layer returns the layer of the given node, or 0 if unknown.
func (p *Plan) Layer(id string) int { return p.Layers[id] }

// Assign computes a layering plan for the diagram. The result is
// deterministic for identical input: links are relaxed in sorted
// (source, target) order, so cyclic subgraphs always stabilize to the
// same assignment regardless of input link order.
func Assign(d *graph.Diagram) *Plan {
	layers := make(map[string]int, len(d.Nodes))

	explicit := applyExplicitLayers(d, layers)
	fromContainers := applyContainerLayers(d, layers)

	if !explicit && !fromContainers && len(d.Links) > 0 {
		relaxLayers(d, layers)
	}

	applyRoleFallback(d, layers)

	return buildPlan(d, layers)
}

// applyExplicitLayers copies pre-assigned layers from the input.
// Returns true when every node carried one.
func applyExplicitLayers(d *graph.Diagram, layers map[string]int) bool {
	all := len(d.Nodes) > 0
	for _, n := range d.Nodes {
		if n.Layer != nil {
			layers[n.ID] = *n.Layer
		} else {
			all = false
		}
	}
	return all
}

// applyContainerLayers derives layers from container membership: the
// container's index in the (ordered) container list is the layer of its
// members. Nested containers pass their own layer down. Returns true when
// at least one node was assigned this way.
func applyContainerLayers(d *graph.Diagram, layers map[string]int) bool {
	if len(d.Containers) == 0 {
		return false
	}

	containerLayer := make(map[string]int, len(d.Containers))
	for i, c := range d.Containers {
		if _, seen := containerLayer[c.ID]; !seen {
			containerLayer[c.ID] = i
		}
	}
	// Nested containers inherit the parent's layer.
	for _, c := range d.Containers {
		for _, child := range c.Children {
			if _, isContainer := containerLayer[child]; isContainer {
				containerLayer[child] = containerLayer[c.ID]
			}
		}
	}

	assigned := false
	for _, c := range d.Containers {
		for _, child := range c.Children {
			if n := d.Node(child); n != nil {
				if _, have := layers[n.ID]; !have {
					layers[n.ID] = containerLayer[c.ID]
					assigned = true
				}
			}
		}
	}
	return assigned
}

// relaxLayers runs the bounded Bellman-Ford-style promotion: whenever a
// link's target is at or above its source, the target is pushed one layer
// below the source. Passes repeat until stable or the node-count cap is
// reached, so cyclic graphs terminate with a best-effort assignment.
//
// Links are scanned in sorted (source, target) order. This makes the
// stabilized state of a cycle a function of the IDs it contains, not of
// input order or pass count.
func relaxLayers(d *graph.Diagram, layers map[string]int) {
	for _, n := range d.Nodes {
		if _, have := layers[n.ID]; !have {
			layers[n.ID] = 0
		}
	}

	links := make([]graph.Link, len(d.Links))
	copy(links, d.Links)
	sort.Slice(links, func(i, j int) bool {
		if links[i].Source != links[j].Source {
			return links[i].Source < links[j].Source
		}
		return links[i].Target < links[j].Target
	})

	maxPasses := len(d.Nodes)
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for _, l := range links {
			if layers[l.Source] >= layers[l.Target] {
				layers[l.Target] = layers[l.Source] + 1
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// Role layer buckets for the type/label fallback. Order matters: the
// first matching bucket wins.
var roleBuckets = []struct {
	layer    int
	keywords []string
}{
	{0, []string{"client", "browser", "mobile", "frontend", "ui", "web", "presentation", "gateway", "cdn"}},
	{1, []string{"api", "service", "backend", "business", "server", "worker", "function"}},
	{2, []string{"database", "db", "storage", "cache", "data", "store", "bucket"}},
}

// applyRoleFallback assigns a layer to any node still missing one, based
// on its type and label. Unrecognized nodes land on layer 0.
func applyRoleFallback(d *graph.Diagram, layers map[string]int) {
	for _, n := range d.Nodes {
		if _, have := layers[n.ID]; have {
			continue
		}
		layers[n.ID] = roleLayer(n)
	}
}

func roleLayer(n graph.Node) int {
	text := strings.ToLower(n.Type + " " + n.Label + " " + n.ID)
	for _, bucket := range roleBuckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(text, kw) {
				return bucket.layer
			}
		}
	}
	return 0
}

// buildPlan compacts the layer values into a dense 0..k range and groups
// node IDs by layer in first-seen input order. Compaction keeps sparse
// explicit layers (say 0 and 10) from producing empty rows.
func buildPlan(d *graph.Diagram, layers map[string]int) *Plan {
	distinct := make(map[int]struct{}, len(layers))
	for _, l := range layers {
		distinct[l] = struct{}{}
	}
	values := make([]int, 0, len(distinct))
	for l := range distinct {
		values = append(values, l)
	}
	sort.Ints(values)

	dense := make(map[int]int, len(values))
	for i, v := range values {
		dense[v] = i
	}

	plan := &Plan{
		Layers: make(map[string]int, len(layers)),
		Rows:   make([][]string, len(values)),
	}
	for _, n := range d.Nodes {
		l := dense[layers[n.ID]]
		plan.Layers[n.ID] = l
		plan.Rows[l] = append(plan.Rows[l], n.ID)
	}
	return plan
}
