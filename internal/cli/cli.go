// Package cli implements the archflow command-line interface.
//
// This package provides commands for laying out architecture diagrams,
// re-routing edges after edits, rendering DOT/SVG previews, and running
// the HTTP API server. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - layout: Compute node positions and edge routes for a diagram
//   - route: Re-route edges of an already positioned diagram
//   - preview: Render a diagram as Graphviz DOT or SVG
//   - serve: Run the HTTP API server
//   - cache: Manage the local layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/archflowhq/archflow/pkg/buildinfo"
	"github.com/archflowhq/archflow/pkg/cache"
	"github.com/archflowhq/archflow/pkg/errors"
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "archflow"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "archflow",
		Short:        "Archflow computes automatic layouts for architecture diagrams",
		Long:         `Archflow is a layout and routing engine for architecture diagrams. It classifies a diagram's topology, picks a placement strategy, positions nodes and containers, and routes labeled edges around them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.routeCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// loadDiagram validates an input path and reads the diagram it names.
// Rejecting traversal sequences and control characters here keeps a
// hostile path out of os.Open and out of the derived output paths.
func loadDiagram(path string) (*graph.Diagram, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	d, err := graph.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load diagram %s: %w", path, err)
	}
	return d, nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/archflow/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	return strings.Split(s, ",")
}

// outputPath resolves the output file for one artifact format. An explicit
// output wins when only one format was requested; otherwise the format's
// extension is appended to the input's base name.
func outputPath(input, output, format string, formatCount int) string {
	if output != "" && formatCount == 1 {
		return output
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if output != "" {
		base = strings.TrimSuffix(output, filepath.Ext(output))
	}
	switch format {
	case pipeline.FormatJSON:
		return base + ".layout.json"
	default:
		return base + "." + format
	}
}
