package view

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphview/pkg/source"
)

// Reactor re-runs a view's layout for every version a source publishes.
// Versions are processed one at a time in arrival order.
type Reactor[N, E any] struct {
	view   *View[N, E]
	src    source.Source[N, E]
	logger *log.Logger
}

// NewReactor connects src to v.
func NewReactor[N, E any](v *View[N, E], src source.Source[N, E]) *Reactor[N, E] {
	return &Reactor[N, E]{view: v, src: src, logger: v.logger}
}

// Mount loads the source and mounts the view with it.
func (r *Reactor[N, E]) Mount(ctx context.Context) error {
	snap, err := r.src.Load(ctx)
	if err != nil {
		return err
	}
	return r.view.Mount(ctx, snap.Nodes, snap.Edges)
}

// Run applies changes until ctx ends, the view closes or the source
// channel closes. Failed updates are logged and the previous model stays.
func (r *Reactor[N, E]) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.view.Done():
			return nil
		case snap, ok := <-r.src.Changes():
			if !ok {
				return nil
			}
			if err := r.view.Update(ctx, snap.Nodes, snap.Edges); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Warn("layout update failed", "err", err)
			}
		}
	}
}
