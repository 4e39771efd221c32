// Package constraint applies ordered corrective passes to a positioned
// diagram.
//
// This is not a constraint solver: there is no backtracking and no
// global satisfaction guarantee. Each pass is a best-effort, in-place
// correction, and passes run in increasing priority order so later
// (higher-priority) corrections win where they conflict. Every built-in
// pass is idempotent: applying a pipeline twice leaves the diagram
// unchanged after the first run.
package constraint

import (
	"sort"

	"github.com/archflowhq/archflow/pkg/graph"
)

// Pass is a single corrective step over the diagram.
type Pass interface {
	// Name identifies the pass in logs.
	Name() string
	// Priority orders passes; lower runs first.
	Priority() int
	// Apply mutates the diagram in place.
	Apply(d *graph.Diagram)
}

// Built-in priorities. User-declared constraints run after the spacing
// and boundary corrections, in the 25-50 band.
const (
	PriorityMinSpacing = 1
	PriorityBoundary   = 2
	PriorityUserMin    = 25
	PriorityUserMax    = 50
)

// Pipeline is an ordered list of passes.
type Pipeline struct {
	passes []Pass
}

// NewPipeline builds a pipeline from the given passes. Order of the
// argument list does not matter; Run sorts by priority.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// Add appends a pass to the pipeline.
func (p *Pipeline) Add(pass Pass) { p.passes = append(p.passes, pass) }

// Run applies every pass in priority order (stable for equal
// priorities, preserving insertion order).
func (p *Pipeline) Run(d *graph.Diagram) {
	sorted := make([]Pass, len(p.passes))
	copy(sorted, p.passes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	for _, pass := range sorted {
		pass.Apply(d)
	}
}

// DefaultPipeline returns the standard correction pipeline: minimum
// spacing, then boundary clamping. The boundary pass clamps node boxes
// into the canvas itself; callers wanting an inset set Padding on their
// own BoundaryPass.
func DefaultPipeline(minSpacing float64) *Pipeline {
	return NewPipeline(
		&MinSpacingPass{Spacing: minSpacing},
		&BoundaryPass{},
	)
}

// clampUserPriority keeps user-declared constraint priorities inside
// their band.
func clampUserPriority(p int) int {
	if p < PriorityUserMin {
		return PriorityUserMin
	}
	if p > PriorityUserMax {
		return PriorityUserMax
	}
	return p
}
