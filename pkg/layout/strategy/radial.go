package strategy

import (
	"math"

	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/config"
	"github.com/archflowhq/archflow/pkg/layout/tier"
)

// applyRadial places layer 0 at the canvas center and each deeper layer
// on a concentric ring of radius baseRadius + (k-1) × ringStep. Nodes on
// a ring are spaced at equal angles starting from -90° (straight up), so
// the first spoke always points north.
func applyRadial(d *graph.Diagram, plan *tier.Plan, cfg config.Config) {
	cx := d.Canvas.Width / 2
	cy := d.Canvas.Height / 2

	for layer, row := range plan.Rows {
		if layer == 0 {
			placeHubs(d, row, cx, cy, cfg)
			continue
		}

		radius := cfg.RadialBaseRadius + float64(layer-1)*cfg.RadialRingStep
		step := 2 * math.Pi / float64(len(row))
		for i, id := range row {
			n := d.Node(id)
			if n == nil {
				continue
			}
			angle := -math.Pi/2 + float64(i)*step
			n.X = cx + radius*math.Cos(angle)
			n.Y = cy + radius*math.Sin(angle)
		}
	}
}

// placeHubs puts the hub layer at the canvas center. A single hub sits
// exactly at the center; multiple hubs form a short centered row so they
// do not stack on one point.
func placeHubs(d *graph.Diagram, row []string, cx, cy float64, cfg config.Config) {
	if len(row) == 1 {
		if n := d.Node(row[0]); n != nil {
			n.X = cx
			n.Y = cy
		}
		return
	}

	total := rowExtent(d, row, cfg.NodeGap, func(n *graph.Node) float64 { return n.Width })
	x := cx - total/2
	for _, id := range row {
		n := d.Node(id)
		if n == nil {
			continue
		}
		n.X = x + n.Width/2
		n.Y = cy
		x += n.Width + cfg.NodeGap
	}
}

// applyClustered groups nodes by container membership (falling back to
// the node's type, then to a single shared group) and places each group
// at a ring position around the canvas center. Members sit on a local
// circle whose radius grows with the group's size.
func applyClustered(d *graph.Diagram, cfg config.Config) {
	groups, order := clusterGroups(d)
	cx := d.Canvas.Width / 2
	cy := d.Canvas.Height / 2

	for gi, key := range order {
		members := groups[key]

		gx, gy := cx, cy
		if len(order) > 1 {
			angle := -math.Pi/2 + float64(gi)*2*math.Pi/float64(len(order))
			gx = cx + cfg.ClusterRadius*math.Cos(angle)
			gy = cy + cfg.ClusterRadius*math.Sin(angle)
		}

		placeCluster(d, members, gx, gy, cfg)
	}
}

// placeCluster arranges one group's members around (gx, gy). A lone
// member sits on the group center; larger groups form a circle whose
// radius is proportional to the member count.
func placeCluster(d *graph.Diagram, members []string, gx, gy float64, cfg config.Config) {
	if len(members) == 1 {
		if n := d.Node(members[0]); n != nil {
			n.X = gx
			n.Y = gy
		}
		return
	}

	radius := cfg.NodeGap + float64(len(members))*cfg.NodeGap/2
	step := 2 * math.Pi / float64(len(members))
	for i, id := range members {
		n := d.Node(id)
		if n == nil {
			continue
		}
		angle := -math.Pi/2 + float64(i)*step
		n.X = gx + radius*math.Cos(angle)
		n.Y = gy + radius*math.Sin(angle)
	}
}

// clusterGroups buckets node IDs by semantic group. The returned order
// slice preserves first-seen order so the placement is deterministic.
func clusterGroups(d *graph.Diagram) (map[string][]string, []string) {
	groups := make(map[string][]string)
	var order []string
	for _, n := range d.Nodes {
		key := n.ContainerID
		if key == "" {
			key = n.Type
		}
		if key == "" {
			key = "ungrouped"
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], n.ID)
	}
	return groups, order
}
