// Package config defines the layout configuration value type threaded
// through every engine stage.
//
// Historically the spacing and padding values here lived as magic numbers
// at individual call sites, keyed loosely by diagram size. They are now a
// single explicit Config value: size-class defaults are chosen from the
// node count and can be overridden per field from a TOML profile.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// SizeClass buckets diagrams by node count to pick spacing defaults.
type SizeClass string

// Size classes, smallest to largest.
const (
	SizeSmall      SizeClass = "small"      // up to 8 nodes
	SizeMedium     SizeClass = "medium"     // up to 20 nodes
	SizeLarge      SizeClass = "large"      // up to 50 nodes
	SizeEnterprise SizeClass = "enterprise" // everything above
)

// ClassForNodeCount returns the size class for a node count.
func ClassForNodeCount(n int) SizeClass {
	switch {
	case n <= 8:
		return SizeSmall
	case n <= 20:
		return SizeMedium
	case n <= 50:
		return SizeLarge
	default:
		return SizeEnterprise
	}
}

// Config carries every tunable the layout engine reads. The zero value is
// not usable; obtain one from Default or Load and override fields as
// needed. All distances are in canvas units.
type Config struct {
	// Canvas padding: distance from the canvas edge to the first node.
	Padding float64 `toml:"padding"`

	// LayerSpacing is the center-to-center distance between consecutive
	// layers (node extent included).
	LayerSpacing float64 `toml:"layer_spacing"`

	// NodeGap is the gap between adjacent nodes within a layer.
	NodeGap float64 `toml:"node_gap"`

	// Radial strategy.
	RadialBaseRadius float64 `toml:"radial_base_radius"`
	RadialRingStep   float64 `toml:"radial_ring_step"`

	// Grid strategy: hard cap on columns; 0 means pick a roughly square
	// width from the node count.
	GridMaxColumns int `toml:"grid_max_columns"`

	// Clustered strategy.
	ClusterRadius float64 `toml:"cluster_radius"`

	// Containers.
	ContainerPadding float64 `toml:"container_padding"`
	ContainerHeader  float64 `toml:"container_header"`

	// Force-directed refiner.
	ForceIterations int     `toml:"force_iterations"`
	ForceSpacing    float64 `toml:"force_spacing"`
	ForceIdealEdge  float64 `toml:"force_ideal_edge"`
	ForceSeed       int64   `toml:"force_seed"`

	// Constraint passes.
	MinSpacing float64 `toml:"min_spacing"`

	// Edge routing.
	ParallelLinkSpacing float64 `toml:"parallel_link_spacing"`
	ObstacleTolerance   float64 `toml:"obstacle_tolerance"`
	CornerRadius        float64 `toml:"corner_radius"`
	BendOffset          float64 `toml:"bend_offset"`

	// Label placement.
	LabelCharWidth float64 `toml:"label_char_width"`
	LabelHeight    float64 `toml:"label_height"`
	LabelPadding   float64 `toml:"label_padding"`

	// Node sizing: minimum width plus per-character growth for long labels.
	NodeMinWidth      float64 `toml:"node_min_width"`
	NodeLabelCharStep float64 `toml:"node_label_char_step"`

	// Input guards: reject pathologically large graphs before layout.
	// Zero disables the guard.
	MaxNodes int `toml:"max_nodes"`
	MaxLinks int `toml:"max_links"`
}

// Default returns the configuration for the given node count's size
// class. Larger diagrams get tighter spacing so they stay navigable on
// one canvas.
func Default(nodeCount int) Config {
	c := Config{
		Padding:             100,
		LayerSpacing:        200,
		NodeGap:             60,
		RadialBaseRadius:    220,
		RadialRingStep:      160,
		GridMaxColumns:      0,
		ClusterRadius:       260,
		ContainerPadding:    40,
		ContainerHeader:     40,
		ForceIterations:     120,
		ForceSpacing:        180,
		ForceIdealEdge:      200,
		ForceSeed:           42,
		MinSpacing:          100,
		ParallelLinkSpacing: 24,
		ObstacleTolerance:   8,
		CornerRadius:        10,
		BendOffset:          40,
		LabelCharWidth:      7.2,
		LabelHeight:         18,
		LabelPadding:        6,
		NodeMinWidth:        120,
		NodeLabelCharStep:   7,
		MaxNodes:            2000,
		MaxLinks:            6000,
	}

	switch ClassForNodeCount(nodeCount) {
	case SizeSmall:
		// Base values above are tuned for small diagrams.
	case SizeMedium:
		c.LayerSpacing = 180
		c.NodeGap = 48
	case SizeLarge:
		c.LayerSpacing = 160
		c.NodeGap = 36
		c.RadialRingStep = 140
	case SizeEnterprise:
		c.LayerSpacing = 140
		c.NodeGap = 28
		c.RadialRingStep = 120
		c.ClusterRadius = 220
	}
	return c
}

// Load reads a TOML profile and applies it over the defaults for the
// given node count. Only fields present in the file are overridden.
func Load(path string, nodeCount int) (Config, error) {
	c := Default(nodeCount)
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects configurations the engine cannot work with.
func (c *Config) Validate() error {
	if c.LayerSpacing <= 0 {
		return fmt.Errorf("layer_spacing must be positive, got %v", c.LayerSpacing)
	}
	if c.ForceIterations < 0 {
		return fmt.Errorf("force_iterations must not be negative, got %d", c.ForceIterations)
	}
	if c.MinSpacing < 0 {
		return fmt.Errorf("min_spacing must not be negative, got %v", c.MinSpacing)
	}
	if c.GridMaxColumns < 0 {
		return fmt.Errorf("grid_max_columns must not be negative, got %d", c.GridMaxColumns)
	}
	return nil
}
