package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/archflowhq/archflow/pkg/cache"
	"github.com/archflowhq/archflow/pkg/export/dot"
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/layout"
	"github.com/archflowhq/archflow/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Diagram is the positioned diagram.
	Diagram *graph.Diagram

	// GraphHash is the content hash of the input graph.
	GraphHash string

	// Strategy is the placement strategy that was used.
	Strategy string

	// Artifacts contains exported outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	LayoutTime time.Duration
	ExportTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the positioned diagram came from cache
	ExportHit bool // Whether all artifacts came from cache
}

// cachedLayout is the cache entry for a layout result: the positioned
// diagram plus the strategy the engine picked.
type cachedLayout struct {
	Diagram  *graph.Diagram `json:"diagram"`
	Strategy string         `json:"strategy"`
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete layout → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, d *graph.Diagram, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		GraphHash: graphHash(d),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Layout
	layoutStart := time.Now()
	positioned, strategyName, layoutHit, err := r.layoutWithCacheInfo(ctx, d, result.GraphHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Diagram = positioned
	result.Strategy = strategyName
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.NodeCount = len(positioned.Nodes)
	result.Stats.LinkCount = len(positioned.Links)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"strategy", strategyName,
		"nodes", result.Stats.NodeCount,
		"links", result.Stats.LinkCount,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 2: Export
	exportStart := time.Now()
	artifacts, exportHit, err := r.exportWithCacheInfo(ctx, positioned, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(exportStart)
	result.CacheInfo.ExportHit = exportHit

	r.Logger.Info("exported outputs",
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// Layout runs the engine (or returns the cached positioned diagram) and
// discards the artifact stage.
func (r *Runner) Layout(ctx context.Context, d *graph.Diagram, opts Options) (*graph.Diagram, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	positioned, _, _, err := r.layoutWithCacheInfo(ctx, d, graphHash(d), opts)
	return positioned, err
}

// Route re-derives link paths and label anchors for an already
// positioned diagram, with its own cache namespace.
func (r *Runner) Route(ctx context.Context, d *graph.Diagram, opts Options) (*graph.Diagram, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	cfg, err := opts.EffectiveConfig(len(d.Nodes))
	if err != nil {
		return nil, err
	}

	cacheKey := r.Keyer.RouteKey(graphHash(d), opts.RouteKeyOpts(cfg))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := graph.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, cacheKey)
				return cached, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, cacheKey)
	}

	eng, err := layout.New(cfg)
	if err != nil {
		return nil, err
	}
	res, err := eng.RouteOnly(ctx, d)
	if err != nil {
		return nil, err
	}

	if data, err := graph.Marshal(res.Diagram); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLRoute) == nil {
			observability.Cache().OnCacheSet(ctx, cacheKey, len(data))
		}
	}
	return res.Diagram, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) layoutWithCacheInfo(ctx context.Context, d *graph.Diagram, hash string, opts Options) (*graph.Diagram, string, bool, error) {
	cfg, err := opts.EffectiveConfig(len(d.Nodes))
	if err != nil {
		return nil, "", false, err
	}

	cacheKey := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts(cfg))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached cachedLayout
			if err := json.Unmarshal(data, &cached); err == nil && cached.Diagram != nil {
				observability.Cache().OnCacheHit(ctx, cacheKey)
				return cached.Diagram, cached.Strategy, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, cacheKey)
	}

	eng, err := layout.New(cfg)
	if err != nil {
		return nil, "", false, err
	}

	var res *layout.Result
	if opts.forcedKind != nil {
		res, err = eng.RunStrategy(ctx, d, *opts.forcedKind)
	} else {
		res, err = eng.Run(ctx, d)
	}
	if err != nil {
		return nil, "", false, err
	}

	entry := cachedLayout{Diagram: res.Diagram, Strategy: res.Strategy.String()}
	if data, err := json.Marshal(entry); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout) == nil {
			observability.Cache().OnCacheSet(ctx, cacheKey, len(data))
		}
	}

	return res.Diagram, res.Strategy.String(), false, nil // Cache miss
}

func (r *Runner) exportWithCacheInfo(ctx context.Context, d *graph.Diagram, opts Options) (map[string][]byte, bool, error) {
	layoutHash := graphHash(d)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ExportKey(layoutHash, opts.ExportKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	rendered, err := exportFormats(d, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ExportKey(layoutHash, opts.ExportKeyOpts(format))
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLExport) == nil {
			observability.Cache().OnCacheSet(ctx, cacheKey, len(data))
		}
	}

	return rendered, false, nil // Cache miss
}

// exportFormats serializes the positioned diagram into every requested
// format.
func exportFormats(d *graph.Diagram, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))
	var dotSrc string

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := graph.Marshal(d)
			if err != nil {
				return nil, fmt.Errorf("marshal diagram: %w", err)
			}
			out[format] = data
		case FormatDOT:
			dotSrc = dot.ToDOT(d, dot.Options{Detailed: opts.Detailed})
			out[format] = []byte(dotSrc)
		case FormatSVG:
			if dotSrc == "" {
				dotSrc = dot.ToDOT(d, dot.Options{Detailed: opts.Detailed})
			}
			svg, err := dot.RenderSVG(dotSrc)
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			out[format] = svg
		}
	}
	return out, nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
