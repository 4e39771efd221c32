// Package strategy converts a layered diagram into concrete node
// coordinates.
//
// A strategy is a named, pure placement algorithm: given the same
// diagram, plan, and configuration it always produces the same
// coordinates. Randomized refinement lives in the force package; nothing
// here draws from a random source.
//
// Strategies position node centers. Container bounds, constraint
// correction, routing, and labels are later stages.
package strategy

import (
	"fmt"

	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/classify"
	"github.com/archflowhq/archflow/pkg/layout/config"
	"github.com/archflowhq/archflow/pkg/layout/tier"
)

// Kind names a placement strategy.
type Kind int

const (
	// KindGrid is the universal fallback: it needs no layering and can
	// place any node set.
	KindGrid Kind = iota
	// KindPipeline lays a single chain out left to right.
	KindPipeline
	// KindTiered stacks layers top to bottom, centering each row.
	KindTiered
	// KindRadial puts the hub at the canvas center and spokes on rings.
	KindRadial
	// KindClustered groups nodes and places each group on its own ring
	// position.
	KindClustered
	// KindForce marks the diagram for force-directed refinement instead
	// of deterministic placement.
	KindForce
)

// String returns the strategy's wire name.
func (k Kind) String() string {
	switch k {
	case KindPipeline:
		return "pipeline"
	case KindTiered:
		return "tiered"
	case KindRadial:
		return "radial"
	case KindClustered:
		return "clustered"
	case KindForce:
		return "force"
	default:
		return "grid"
	}
}

// Parse maps a wire name back to a Kind.
func Parse(s string) (Kind, error) {
	switch s {
	case "grid":
		return KindGrid, nil
	case "pipeline", "linear":
		return KindPipeline, nil
	case "tiered", "swimlane":
		return KindTiered, nil
	case "radial", "hub-spoke":
		return KindRadial, nil
	case "clustered":
		return KindClustered, nil
	case "force", "force-directed":
		return KindForce, nil
	default:
		return KindGrid, fmt.Errorf("unknown strategy %q", s)
	}
}

// Select maps a classification result to a strategy. hasLayering reports
// whether the tier assigner produced more than one layer; without it the
// tiered family degenerates and the selector falls back to force-directed
// refinement (when links exist to pull on) or a plain grid.
func Select(res classify.Result, hasLayering bool) Kind {
	if !hasLayering {
		if res.LinkCount > 0 {
			return KindForce
		}
		return KindGrid
	}

	switch res.Pattern {
	case classify.PatternPipeline:
		return KindPipeline
	case classify.PatternHubSpoke:
		return KindRadial
	case classify.PatternMicroservices:
		return KindClustered
	case classify.PatternTiered, classify.PatternLayered,
		classify.PatternEventDriven, classify.PatternClientServer:
		return KindTiered
	default:
		return KindGrid
	}
}

// Apply positions every node in the diagram according to the strategy.
// KindForce is not handled here; the engine runs the force refiner for
// it. Unknown kinds fall back to the grid.
func Apply(d *graph.Diagram, plan *tier.Plan, kind Kind, cfg config.Config) {
	if len(d.Nodes) == 0 {
		return
	}

	ResizeForLabels(d, cfg)

	switch kind {
	case KindPipeline:
		applyPipeline(d, plan, cfg)
	case KindTiered:
		applyTiered(d, plan, cfg)
	case KindRadial:
		applyRadial(d, plan, cfg)
	case KindClustered:
		applyClustered(d, cfg)
	default:
		applyGrid(d, cfg)
	}
}

// ResizeForLabels widens nodes whose labels would overflow the default
// box. Height is left alone; diagrams read better when rows stay level.
func ResizeForLabels(d *graph.Diagram, cfg config.Config) {
	for i := range d.Nodes {
		n := &d.Nodes[i]
		needed := float64(len(n.DisplayLabel()))*cfg.NodeLabelCharStep + 24
		if needed < cfg.NodeMinWidth {
			needed = cfg.NodeMinWidth
		}
		if needed > n.Width {
			n.Width = needed
		}
	}
}
