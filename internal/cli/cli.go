// Package cli implements the graphview command-line interface.
//
// # Commands
//
//   - render: lay out a graph document and write SVG, PNG or PDF
//   - layout: write the transformed model as JSON and summarize it
//   - serve: interactive browser view over a websocket
//   - explore: interactive terminal view
//   - cache: manage the local layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels through the command context (see loggerFromContext).
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphview/pkg/buildinfo"
	"github.com/matzehuels/graphview/pkg/cache"
	"github.com/matzehuels/graphview/pkg/layout"
	"github.com/matzehuels/graphview/pkg/observability"
	"github.com/matzehuels/graphview/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "graphview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	trace      bool
	tracer     *observability.TracerProvider
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
		Use:          appName,
		Short:        "graphview lays out directed graphs and lets you pan and zoom them",
		Long:         `graphview measures graph nodes, hands them to a layout engine (Graphviz), and renders the result to SVG, into a browser session or into the terminal, with pointer-anchored zoom and drag panning.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if c.trace && c.tracer == nil {
				c.tracer = observability.InitTracing(c.Logger)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.tracer == nil {
				return nil
			}
			err := c.tracer.Shutdown(context.Background())
			c.tracer = nil
			return err
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML config file")
	root.PersistentFlags().BoolVar(&c.trace, "trace", false, "log OpenTelemetry spans for pipeline runs")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the --config file.
func (c *CLI) loadConfig() (fileConfig, error) {
	return loadConfig(c.configPath)
}

// newEngine returns the Graphviz engine behind the layout cache.
func (c *CLI) newEngine(store cache.Cache) layout.Engine {
	gv := layout.NewGraphviz(c.Logger)
	return layout.NewCached(gv, gv.Name(), store, layout.WithLogger(c.Logger))
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/graphview/).
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

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(parts[i]))
	}
	return parts
}
