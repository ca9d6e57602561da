package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphview/internal/server"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/source"
)

const defaultAddr = ":8080"

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		flags viewFlags
		src   sourceFlags
	)

	cmd := &cobra.Command{
		Use:   "serve [graph.json|graph.yaml]",
		Short: "Serve an interactive view in the browser",
		Long: `Serve an interactive view of a graph in the browser.

Every browser tab gets its own view: scroll to zoom around the pointer,
drag to pan, double-click to center. With --watch, saving the graph file
(or updating the MongoDB document) re-runs the layout in every open tab.

MongoDB change streams need a replica set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, args, addr, &flags, &src)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	addViewFlags(cmd, &flags)
	addSourceFlags(cmd, &src)

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, args []string, addr string, flags *viewFlags, sf *sourceFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("addr") && cfg.Serve.Addr != "" {
		addr = cfg.Serve.Addr
	}
	opts, err := flags.options(cmd, cfg, logger)
	if err != nil {
		return err
	}

	store, err := flags.newLayoutCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	src, watch, err := sf.open(ctx, cmd, args, cfg, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	fanout := source.NewFanout[graph.Attrs, graph.Attrs](src)
	snap, err := fanout.Load(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if watch != nil {
		go func() {
			if err := watch(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("watch stopped", "err", err)
			}
		}()
	}
	go func() { _ = fanout.Run(ctx) }()

	printSuccess("Serving %d nodes, %d edges", len(snap.Nodes), len(snap.Edges))
	printDetail("http://localhost%s", displayAddr(addr))
	if watch != nil {
		printDetail("watching for changes")
	}

	srv := server.New(c.newEngine(store), fanout, opts)
	err = srv.ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// displayAddr returns the ":port" suffix of addr.
func displayAddr(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i:]
		}
	}
	return ":" + addr
}
