package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archflowhq/archflow/pkg/pipeline"
)

// layoutCommand creates the layout command for positioning diagrams.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		formats string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [diagram.json]",
		Short: "Compute node positions and edge routes for a diagram",
		Long: `Compute node positions and edge routes for a diagram.

The layout command takes a diagram.json file describing nodes, containers,
and links, classifies its topology, and writes the positioned diagram back
out. Pass --strategy to override the automatic selection, or --format to
export Graphviz DOT or SVG alongside the JSON.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formats)
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	// Layout flags
	cmd.Flags().StringVarP(&opts.Strategy, "strategy", "s", "", "placement strategy: grid, pipeline, tiered, radial, clustered, force (default: automatic)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "TOML file overriding layout tuning parameters")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when a cached layout exists")

	// Export flags
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output formats, comma-separated: json (default), dot, svg")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include node type and layer in DOT labels")

	return cmd
}

// runLayout loads the diagram, runs the pipeline, and writes the artifacts.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	d, err := loadDiagram(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, d, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var previewPath string
	for _, format := range opts.Formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}
		path := outputPath(input, output, format, len(opts.Formats))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
		if format == pipeline.FormatJSON {
			previewPath = path
		}
	}

	printSuccess("Layout complete (%s strategy)", result.Strategy)
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.CacheInfo.LayoutHit)
	if previewPath != "" {
		printNewline()
		printNextStep("Preview", "archflow preview "+previewPath)
	}

	return nil
}
