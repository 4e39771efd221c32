package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/pipeline"
)

// routeCommand creates the route command for incremental re-routing.
func (c *CLI) routeCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "route [layout.json]",
		Short: "Re-route edges of an already positioned diagram",
		Long: `Re-route edges of an already positioned diagram.

After dragging nodes in an editor, the node positions are fine but the
edge paths and label anchors are stale. The route command recomputes
only the edge routes and label placement, leaving every node and
container where it is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "TOML file overriding layout tuning parameters")

	return cmd
}

// runRoute loads the positioned diagram, recomputes edge routes, and writes it back.
func (c *CLI) runRoute(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
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

	prog := newProgress(c.Logger)
	routed, err := runner.Route(ctx, d, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Routed %d links", len(routed.Links)))

	if output == "" {
		output = input
	}
	if err := graph.WriteFile(routed, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Routing complete")
	printFile(output)
	return nil
}
