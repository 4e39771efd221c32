// Package pipeline provides the cached layout pipeline for Archflow.
//
// This package wraps the layout engine with content-addressed caching and
// export, so the CLI and the HTTP API share one code path. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: Run the engine over the input graph (or fetch the cached
//     positioned diagram for an identical graph + configuration)
//  2. Export: Serialize the positioned diagram into the requested
//     formats (JSON, DOT, SVG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Formats: []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, diagram, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Layout only
//	positioned, err := runner.Layout(ctx, diagram, opts)
//
//	// Incremental routing only
//	routed, err := runner.Route(ctx, positioned, opts)
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/archflowhq/archflow/pkg/cache"
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout/config"
	"github.com/archflowhq/archflow/pkg/layout/strategy"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Strategy forces a placement strategy; empty means automatic
	// selection from the graph's classification.
	Strategy string `json:"strategy,omitempty"`

	// ConfigPath points at a TOML profile overriding the size-class
	// defaults. Ignored when Config is set.
	ConfigPath string `json:"config_path,omitempty"`

	// Refresh bypasses the cache and recomputes.
	Refresh bool `json:"refresh,omitempty"`

	// Export options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // detailed DOT labels

	// Runtime options (not serialized)
	Config *config.Config `json:"-"` // explicit configuration, overrides ConfigPath
	Logger *log.Logger    `json:"-"`

	// forcedKind caches the parsed Strategy.
	forcedKind *strategy.Kind

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Strategy != "" {
		kind, err := strategy.Parse(o.Strategy)
		if err != nil {
			return err
		}
		o.forcedKind = &kind
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// EffectiveConfig resolves the layout configuration for a diagram:
// explicit Config first, then the TOML profile, then the size-class
// defaults for the node count.
func (o *Options) EffectiveConfig(nodeCount int) (config.Config, error) {
	if o.Config != nil {
		return *o.Config, nil
	}
	if o.ConfigPath != "" {
		return config.Load(o.ConfigPath, nodeCount)
	}
	return config.Default(nodeCount), nil
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(cfg config.Config) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ConfigHash: configHash(cfg),
		Strategy:   o.Strategy,
	}
}

// RouteKeyOpts returns cache key options for incremental routing.
func (o *Options) RouteKeyOpts(cfg config.Config) cache.RouteKeyOpts {
	return cache.RouteKeyOpts{ConfigHash: configHash(cfg)}
}

// ExportKeyOpts returns cache key options for one export format.
func (o *Options) ExportKeyOpts(format string) cache.ExportKeyOpts {
	return cache.ExportKeyOpts{Format: format}
}

// graphHash returns the content hash of a diagram, or "" when the
// diagram cannot be serialized.
func graphHash(d *graph.Diagram) string {
	data, err := graph.Marshal(d)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// configHash returns the content hash of a layout config so cached
// layouts are invalidated when tuning parameters change.
func configHash(c config.Config) string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
