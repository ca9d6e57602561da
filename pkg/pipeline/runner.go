package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphview/pkg/curve"
	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/layout"
	"github.com/matzehuels/graphview/pkg/observability"
)

// Pipeline runs measure → layout → commit against one surface.
//
// Runs are serialized; a Pipeline may be shared between goroutines.
type Pipeline[N, E any] struct {
	engine  layout.Engine
	surface Surface[N, E]
	curve   curve.Func
	name    string
	logger  *log.Logger

	mu    sync.Mutex
	state State
	model graph.Model[N, E]
	stats Stats
}

// New creates a pipeline.
func New[N, E any](engine layout.Engine, surface Surface[N, E], opts Options) *Pipeline[N, E] {
	opts.setDefaults(engine)
	return &Pipeline[N, E]{
		engine:  engine,
		surface: surface,
		curve:   opts.Curve,
		name:    opts.EngineName,
		logger:  opts.Logger,
	}
}

// State returns the current phase.
func (p *Pipeline[N, E]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Model returns the last committed model.
func (p *Pipeline[N, E]) Model() graph.Model[N, E] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model
}

// Stats returns the statistics of the last successful run.
func (p *Pipeline[N, E]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Run lays out nodes and edges and draws the result.
//
// Input is validated first: duplicate node IDs and edges referencing
// unknown nodes fail with INVALID_GRAPH. An empty graph commits an empty
// model without calling the engine. On failure the previously committed
// model stays in place, is drawn on the surface again, and the pipeline
// returns to Idle.
func (p *Pipeline[N, E]) Run(ctx context.Context, nodes []graph.Node[N], edges []graph.Edge[E], cfg layout.Config) (graph.Model[N, E], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := observability.StartRunSpan(ctx, len(nodes), len(edges))
	defer span.End()

	model, stats, err := p.run(ctx, nodes, edges, cfg.WithDefaults())
	if err != nil {
		observability.RecordError(span, err)
		p.restore(ctx)
		p.state = Idle
		return graph.Model[N, E]{}, err
	}
	p.model, p.stats, p.state = model, stats, Committed
	return model, nil
}

func (p *Pipeline[N, E]) run(ctx context.Context, nodes []graph.Node[N], edges []graph.Edge[E], cfg layout.Config) (graph.Model[N, E], Stats, error) {
	stats := Stats{NodeCount: len(nodes), EdgeCount: len(edges)}

	if err := graph.Validate(nodes, edges); err != nil {
		return graph.Model[N, E]{}, stats, err
	}

	if len(nodes) == 0 {
		empty := graph.Model[N, E]{
			Nodes:  []graph.TransformedNode[N]{},
			Edges:  []graph.TransformedEdge[E]{},
			Width:  2 * cfg.MarginX,
			Height: 2 * cfg.MarginY,
		}
		if err := p.commit(ctx, empty); err != nil {
			return graph.Model[N, E]{}, stats, err
		}
		return empty, stats, nil
	}

	// Measuring
	start := time.Now()
	p.state = Measuring
	observability.Pipeline().OnMeasureStart(ctx, len(nodes))
	sizes, err := p.measure(ctx, nodes)
	stats.MeasureTime = time.Since(start)
	observability.Pipeline().OnMeasureComplete(ctx, len(nodes), stats.MeasureTime, err)
	if err != nil {
		return graph.Model[N, E]{}, stats, err
	}

	// LayingOut
	in := buildInput(nodes, edges, sizes, cfg)
	start = time.Now()
	p.state = LayingOut
	observability.Pipeline().OnLayoutStart(ctx, p.name, len(in.Nodes), len(in.Edges))
	res, err := p.engine.Layout(ctx, in)
	stats.LayoutTime = time.Since(start)
	observability.Pipeline().OnLayoutComplete(ctx, p.name, stats.LayoutTime, err)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeLayoutFailed, err, "%s", p.name)
		}
		return graph.Model[N, E]{}, stats, err
	}
	p.logger.Debug("layout computed", "engine", p.name, "nodes", len(res.Nodes), "edges", len(res.Edges), "duration", stats.LayoutTime)

	// Transform and commit
	start = time.Now()
	model, err := transform(nodes, edges, sizes, res, p.curve)
	if err != nil {
		return graph.Model[N, E]{}, stats, err
	}
	if err := p.commit(ctx, model); err != nil {
		return graph.Model[N, E]{}, stats, err
	}
	stats.CommitTime = time.Since(start)
	observability.Pipeline().OnCommit(ctx, len(model.Nodes), len(model.Edges), stats.CommitTime)
	return model, stats, nil
}

type size struct{ w, h float64 }

// measure draws all nodes hidden at the origin and reads back their sizes.
func (p *Pipeline[N, E]) measure(ctx context.Context, nodes []graph.Node[N]) (map[string]size, error) {
	hidden := graph.Model[N, E]{Nodes: make([]graph.TransformedNode[N], len(nodes))}
	for i, n := range nodes {
		hidden.Nodes[i] = graph.TransformedNode[N]{
			ID:        n.ID,
			Transform: translate(0, 0),
			Visible:   false,
			Data:      n.Data,
		}
	}
	if err := p.surface.Draw(hidden); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "draw measurement pass")
	}
	if err := p.surface.Flush(ctx); err != nil {
		return nil, err
	}

	sizes := make(map[string]size, len(nodes))
	for _, n := range nodes {
		bb, ok := p.surface.BBox(n.ID)
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "node %q was not measured", n.ID)
		}
		sizes[n.ID] = size{bb.Width, bb.Height}
	}
	return sizes, nil
}

// restore draws the last committed model again, replacing whatever
// measurement frame a failed run left on the surface.
func (p *Pipeline[N, E]) restore(ctx context.Context) {
	err := p.surface.Draw(p.model)
	if err == nil {
		err = p.surface.Flush(context.WithoutCancel(ctx))
	}
	if err != nil {
		p.logger.Warn("restore previous frame", "err", err)
	}
}

func (p *Pipeline[N, E]) commit(ctx context.Context, m graph.Model[N, E]) error {
	if err := p.surface.Draw(m); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "draw model")
	}
	return p.surface.Flush(ctx)
}

func buildInput[N, E any](nodes []graph.Node[N], edges []graph.Edge[E], sizes map[string]size, cfg layout.Config) layout.Input {
	in := layout.Input{
		Nodes:  make([]layout.NodeSpec, len(nodes)),
		Edges:  make([]layout.EdgeSpec, len(edges)),
		Config: cfg,
	}
	for i, n := range nodes {
		s := sizes[n.ID]
		in.Nodes[i] = layout.NodeSpec{ID: n.ID, Width: s.w, Height: s.h}
	}
	for i, e := range edges {
		in.Edges[i] = layout.EdgeSpec{ID: e.ID, Source: e.Source, Target: e.Target}
	}
	return in
}
