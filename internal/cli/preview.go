package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archflowhq/archflow/pkg/pipeline"
)

// previewCommand creates the preview command for rendering DOT/SVG output.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		output  string
		format  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "preview [diagram.json]",
		Short: "Render a diagram as Graphviz DOT or SVG",
		Long: `Render a diagram as Graphviz DOT or SVG.

The preview command runs the layout pipeline (reusing cached results when
available) and writes a single rendered artifact. Unpositioned diagrams
are laid out first; already positioned diagrams keep their coordinates,
which are pinned in the generated DOT.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}
			if format == pipeline.FormatJSON {
				return fmt.Errorf("preview renders dot or svg; use 'archflow layout' for json")
			}
			opts.Formats = []string{format}
			return c.runPreview(cmd.Context(), args[0], opts, output, format, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatSVG, "output format: svg (default), dot")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include node type and layer in labels")

	return cmd
}

// runPreview runs the pipeline and writes the single requested artifact.
func (c *CLI) runPreview(ctx context.Context, input string, opts pipeline.Options, output, format string, noCache bool) error {
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

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", format))
	spinner.Start()

	result, err := runner.Execute(ctx, d, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}

	data, ok := result.Artifacts[format]
	if !ok {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("pipeline produced no %s artifact", format)
	}

	path := outputPath(input, output, format, 1)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("write output %s: %w", path, err)
	}
	spinner.StopWithSuccess("Preview rendered")

	printFile(path)
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.CacheInfo.ExportHit)
	return nil
}
