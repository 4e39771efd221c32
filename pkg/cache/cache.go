// Package cache provides content-addressed caching for layout results.
//
// Laying a diagram out is pure: the positioned output is fully determined
// by the input graph and the layout configuration. That makes layout
// results ideal cache entries — the key is a hash of the inputs, and a
// hit can skip the whole engine run.
//
// # Backends
//
// Three backends implement the Cache interface:
//   - FileCache: entries as files under a directory, for CLI usage
//   - RedisCache: shared cache for the HTTP service
//   - NullCache: no-op, for tests and --no-cache runs
//
// # Keys
//
// Keyers turn (hash, options) pairs into namespaced string keys. Use
// ScopedKeyer to isolate tenants sharing one Redis instance.
package cache

import (
	"context"
	"time"
)

// Standard TTLs per artifact type. Layout results are pure functions of
// their key, so the TTLs exist to bound storage, not to expire stale
// data.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLRoute  = 24 * time.Hour
	TTLExport = 24 * time.Hour
)

// Cache stores opaque byte values under string keys with optional TTLs.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present; absence is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the inputs, beyond the graph itself, that change a
// layout result.
type LayoutKeyOpts struct {
	// ConfigHash is the hash of the layout configuration.
	ConfigHash string
	// Strategy is a forced strategy name, empty for auto-selection.
	Strategy string
}

// RouteKeyOpts are the inputs that change an incremental routing result.
type RouteKeyOpts struct {
	ConfigHash string
}

// ExportKeyOpts are the inputs that change an exported rendering.
type ExportKeyOpts struct {
	// Format is the export format ("dot", "svg").
	Format string
}

// Keyer generates cache keys for the cacheable artifact types.
type Keyer interface {
	// LayoutKey generates a key for a full layout result.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// RouteKey generates a key for an incremental routing result.
	RouteKey(graphHash string, opts RouteKeyOpts) string

	// ExportKey generates a key for an exported rendering of a
	// positioned diagram.
	ExportKey(layoutHash string, opts ExportKeyOpts) string
}

// DefaultKeyer is the standard key scheme: a type prefix plus a SHA-256
// over the hash and options.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for a full layout result.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// RouteKey generates a key for an incremental routing result.
func (k *DefaultKeyer) RouteKey(graphHash string, opts RouteKeyOpts) string {
	return hashKey("route", graphHash, opts)
}

// ExportKey generates a key for an exported rendering.
func (k *DefaultKeyer) ExportKey(layoutHash string, opts ExportKeyOpts) string {
	return hashKey("export", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
