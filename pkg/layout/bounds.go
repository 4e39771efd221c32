package layout

import (
	"github.com/archflowhq/archflow/pkg/geometry"
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/config"
)

// Bounds recomputes every container's rectangle from its members'
// positions. Nested containers are sized innermost first, and a sized
// child container then counts as a pseudo-node when its parent is sized.
//
// Each bounding box is the union of the member boxes (full extents, not
// centers), expanded by the configured padding on all sides plus a
// header band on top for the container label. A container with no
// positioned members keeps the default size and is parked at a fallback
// position offset by its index, so empty containers never pile up on a
// single point.
//
// Bounds is idempotent: member positions are never touched, so a second
// call reproduces the same rectangles.
func Bounds(d *graph.Diagram, cfg config.Config) {
	if len(d.Containers) == 0 {
		return
	}

	order := containerOrder(d)
	sized := make(map[string]bool, len(d.Containers))

	for _, ci := range order {
		c := &d.Containers[ci]

		box, ok := memberUnion(d, c, sized)
		if !ok {
			c.SetBox(emptyContainerBox(cfg, ci))
			sized[c.ID] = true
			continue
		}

		box = box.Expand(cfg.ContainerPadding)
		box.Top -= cfg.ContainerHeader
		c.SetBox(box)
		sized[c.ID] = true
	}
}

// containerOrder returns container indices innermost first: a container
// always appears before any container that lists it as a child. Index
// order breaks ties so the result is deterministic.
func containerOrder(d *graph.Diagram) []int {
	depth := make(map[string]int, len(d.Containers))
	// parent depth = 1 + max child container depth; leaves are 0
	var depthOf func(id string, seen map[string]bool) int
	depthOf = func(id string, seen map[string]bool) int {
		if dep, ok := depth[id]; ok {
			return dep
		}
		if seen[id] {
			// membership cycle; treat as leaf to terminate
			return 0
		}
		seen[id] = true
		c := d.Container(id)
		dep := 0
		if c != nil {
			for _, childID := range c.Children {
				if d.Container(childID) == nil {
					continue
				}
				if cd := depthOf(childID, seen) + 1; cd > dep {
					dep = cd
				}
			}
		}
		depth[id] = dep
		return dep
	}

	order := make([]int, len(d.Containers))
	for i := range order {
		order[i] = i
		depthOf(d.Containers[i].ID, map[string]bool{})
	}
	// stable insertion sort by depth, shallowest (innermost) first
	for i := 1; i < len(order); i++ {
		for j := i; j > 0; j-- {
			a, b := &d.Containers[order[j-1]], &d.Containers[order[j]]
			if depth[a.ID] <= depth[b.ID] {
				break
			}
			order[j-1], order[j] = order[j], order[j-1]
		}
	}
	return order
}

// memberUnion returns the union of the container's member boxes: nodes
// that list the container via ContainerID or appear in Children, plus
// already-sized child containers. ok is false when no member resolved.
func memberUnion(d *graph.Diagram, c *graph.Container, sized map[string]bool) (geometry.Rect, bool) {
	var box geometry.Rect
	found := false
	add := func(r geometry.Rect) {
		if !found {
			box = r
			found = true
			return
		}
		box = box.Union(r)
	}

	for i := range d.Nodes {
		if d.Nodes[i].ContainerID == c.ID {
			add(d.Nodes[i].Box())
		}
	}
	for _, childID := range c.Children {
		if n := d.Node(childID); n != nil && n.ContainerID != c.ID {
			add(n.Box())
			continue
		}
		if cc := d.Container(childID); cc != nil && sized[cc.ID] {
			add(cc.Box())
		}
	}
	return box, found
}

// emptyContainerBox places a memberless container at a default size,
// offset by the container's index.
func emptyContainerBox(cfg config.Config, idx int) geometry.Rect {
	step := graph.DefaultContainerWidth / 2
	topLeft := geometry.Point{
		X: cfg.Padding + float64(idx)*step,
		Y: cfg.Padding + float64(idx)*cfg.ContainerHeader,
	}
	return geometry.RectFromTopLeft(topLeft, graph.DefaultContainerWidth, graph.DefaultContainerHeight)
}
