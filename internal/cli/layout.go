package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/observability"
	"github.com/matzehuels/graphview/pkg/surface/svg"
	"github.com/matzehuels/graphview/pkg/view"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		quiet  bool
		flags  viewFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json|graph.yaml]",
		Short: "Compute the transformed model of a graph",
		Long: `Compute the transformed model of a graph.

Nodes are measured with the default templates, laid out with Graphviz, and
written as JSON (positions, sizes, transforms and edge paths). A summary
table of the placed nodes is printed unless --quiet is given.

Layouts are cached locally, or in Redis with --redis-url.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], output, quiet, &flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "skip the summary table")
	addViewFlags(cmd, &flags)

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, input, output string, quiet bool, flags *viewFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts, err := flags.options(cmd, cfg, logger)
	if err != nil {
		return err
	}
	doc, err := graph.ReadDocumentFile(input)
	if err != nil {
		return err
	}

	store, err := flags.newLayoutCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	stats := &cacheStats{}
	observability.SetCacheHooks(stats)
	defer observability.SetCacheHooks(observability.NoopCacheHooks{})

	v, err := view.New(c.newEngine(store), svg.DefaultTemplates(), opts)
	if err != nil {
		return err
	}
	defer v.Close()

	spinner := newSpinner(ctx, "Computing layout...")
	spinner.Start()
	if err := v.Mount(ctx, doc.Nodes, doc.Edges); err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	m := v.Model()
	if err := graph.WriteModelFile(m, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(len(m.Nodes), len(m.Edges), stats.hit())
	if !quiet && len(m.Nodes) > 0 {
		fmt.Fprintln(stdout, modelTable(m))
	}
	printNewline()
	printNextStep("Render", appName+" render "+input)
	return nil
}
