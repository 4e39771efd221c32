// Package layout is the engine facade: it turns an unpositioned diagram
// into a fully positioned one.
//
// A full run executes the stage pipeline in a fixed order:
//
//	sanitize → classify → tier → select → position → bounds →
//	constraints → route → label
//
// The engine is a pure function of its input: it clones the diagram,
// never mutates the caller's copy, and holds no state between runs, so
// one Engine value can serve concurrent requests. There is no
// cancellation inside a run; every iterative stage carries its own hard
// iteration cap, and callers bound input size up front via the
// MaxNodes/MaxLinks guard instead of cancelling mid-flight.
//
// RouteOnly is the incremental entry point: it re-derives link paths and
// label anchors for a diagram whose nodes already carry positions, which
// is what a live-editing host needs after a manual move or resize.
package layout

import (
	"context"
	"time"

	"github.com/archflowhq/archflow/pkg/errors"
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/label"
	"github.com/archflowhq/archflow/pkg/layout/classify"
	"github.com/archflowhq/archflow/pkg/layout/config"
	"github.com/archflowhq/archflow/pkg/layout/constraint"
	"github.com/archflowhq/archflow/pkg/layout/force"
	"github.com/archflowhq/archflow/pkg/layout/strategy"
	"github.com/archflowhq/archflow/pkg/layout/tier"
	"github.com/archflowhq/archflow/pkg/observability"
	"github.com/archflowhq/archflow/pkg/route"
)

// Engine runs the layout pipeline with a fixed configuration.
type Engine struct {
	cfg    config.Config
	passes []constraint.Pass // user-declared passes appended to the defaults
}

// Result is a positioned diagram plus the run metadata callers log or
// return through the API.
type Result struct {
	Diagram  *graph.Diagram
	Pattern  classify.Pattern
	Strategy strategy.Kind
	Layers   int
	Sanitize graph.SanitizeReport
	Elapsed  time.Duration
}

// New builds an engine for the given configuration.
func New(cfg config.Config, userPasses ...constraint.Pass) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout configuration rejected")
	}
	return &Engine{cfg: cfg, passes: userPasses}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() config.Config { return e.cfg }

// Run executes the full pipeline on a copy of in.
//
// Errors are limited to the input guard: every downstream stage is
// total (degenerate geometry is defaulted, dangling links dropped,
// classification failure falls back to the grid), so past the guard a
// run always produces a positioned diagram.
func (e *Engine) Run(ctx context.Context, in *graph.Diagram) (*Result, error) {
	return e.run(ctx, in, nil)
}

// RunStrategy executes the full pipeline with a forced strategy instead
// of the automatic selection.
func (e *Engine) RunStrategy(ctx context.Context, in *graph.Diagram, kind strategy.Kind) (*Result, error) {
	return e.run(ctx, in, &kind)
}

func (e *Engine) run(ctx context.Context, in *graph.Diagram, forced *strategy.Kind) (*Result, error) {
	if err := e.guard(in); err != nil {
		return nil, err
	}

	start := time.Now()
	hooks := observability.Engine()

	d := in.Clone()
	res := &Result{Diagram: d}

	stage(ctx, hooks, "sanitize", func() {
		res.Sanitize = graph.Sanitize(d)
	})

	if len(d.Nodes) == 0 {
		// Empty graph: a valid positioned result with the default
		// canvas, not an error.
		res.Strategy = strategy.KindGrid
		res.Elapsed = time.Since(start)
		return res, nil
	}

	var cls classify.Result
	stage(ctx, hooks, "classify", func() {
		cls = classify.Classify(d)
	})
	res.Pattern = cls.Pattern

	var plan *tier.Plan
	stage(ctx, hooks, "tier", func() {
		plan = tier.Assign(d)
	})
	res.Layers = plan.LayerCount()

	kind := strategy.Select(cls, plan.LayerCount() > 1)
	if forced != nil {
		kind = *forced
	}
	res.Strategy = kind
	hooks.OnLayoutStart(ctx, kind.String(), len(d.Nodes), len(d.Links))

	stage(ctx, hooks, "position", func() {
		if kind == strategy.KindForce {
			strategy.ResizeForLabels(d, e.cfg)
			force.Refine(d, e.cfg)
			return
		}
		strategy.Apply(d, plan, kind, e.cfg)
	})

	stage(ctx, hooks, "bounds", func() {
		Bounds(d, e.cfg)
	})

	stage(ctx, hooks, "constraints", func() {
		pipe := constraint.DefaultPipeline(e.cfg.MinSpacing)
		for _, p := range e.passes {
			pipe.Add(p)
		}
		pipe.Run(d)
		// corrections move nodes, so container rectangles are refreshed
		Bounds(d, e.cfg)
	})

	stage(ctx, hooks, "route", func() {
		route.Links(d, e.cfg)
	})

	stage(ctx, hooks, "label", func() {
		label.Place(d, e.cfg)
	})

	res.Elapsed = time.Since(start)
	hooks.OnLayoutComplete(ctx, kind.String(), res.Elapsed, nil)
	return res, nil
}

// RouteOnly re-derives link paths and label anchors for a diagram whose
// nodes already carry positions. Node and container geometry is
// sanitized but never repositioned.
func (e *Engine) RouteOnly(ctx context.Context, in *graph.Diagram) (*Result, error) {
	if err := e.guard(in); err != nil {
		return nil, err
	}

	start := time.Now()
	hooks := observability.Engine()

	d := in.Clone()
	res := &Result{Diagram: d}

	stage(ctx, hooks, "sanitize", func() {
		res.Sanitize = graph.Sanitize(d)
	})
	stage(ctx, hooks, "route", func() {
		route.Links(d, e.cfg)
	})
	stage(ctx, hooks, "label", func() {
		label.Place(d, e.cfg)
	})

	res.Elapsed = time.Since(start)
	return res, nil
}

// guard rejects pathologically large graphs before any work happens.
// Zero limits disable the check.
func (e *Engine) guard(d *graph.Diagram) error {
	if e.cfg.MaxNodes > 0 && len(d.Nodes) > e.cfg.MaxNodes {
		return errors.New(errors.ErrCodeGraphTooLarge,
			"diagram has %d nodes, limit is %d", len(d.Nodes), e.cfg.MaxNodes)
	}
	if e.cfg.MaxLinks > 0 && len(d.Links) > e.cfg.MaxLinks {
		return errors.New(errors.ErrCodeGraphTooLarge,
			"diagram has %d links, limit is %d", len(d.Links), e.cfg.MaxLinks)
	}
	return nil
}

func stage(ctx context.Context, hooks observability.EngineHooks, name string, fn func()) {
	hooks.OnStageStart(ctx, name)
	t := time.Now()
	fn()
	hooks.OnStageComplete(ctx, name, time.Since(t))
}
