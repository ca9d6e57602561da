// Package view assembles the layout pipeline, the SVG surface and the
// viewport controller into one embeddable component.
//
// A [View] is driven by its host: Mount and Update run the layout, Wheel
// and the Pointer methods forward input, and WriteSVG renders the current
// state. Mutating entry points are serialized, so a host may call them
// from several goroutines. Event handlers run while the view is locked and
// may only use the read accessors (ViewBox, Model, Size, WriteSVG, SVG).
// A [Reactor] re-runs the layout whenever a
// [source.Source] reports a new version.
package view

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphview/pkg/errors"
	"github.com/matzehuels/graphview/pkg/geom"
	"github.com/matzehuels/graphview/pkg/graph"
	"github.com/matzehuels/graphview/pkg/layout"
	"github.com/matzehuels/graphview/pkg/observability"
	"github.com/matzehuels/graphview/pkg/pipeline"
	"github.com/matzehuels/graphview/pkg/surface/svg"
	"github.com/matzehuels/graphview/pkg/viewport"
)

// Event is a performed operation.
type Event = viewport.Event

// View events. EventLayout follows every committed layout run.
const (
	EventCenter = viewport.EventCenter
	EventZoom   = viewport.EventZoom
	EventPan    = viewport.EventPan
	EventLayout Event = "layout"
)

// ErrClosed is returned by layout runs on a closed view.
var ErrClosed error = errors.New(errors.ErrCodeInternal, "view is closed")

// View is an interactive graph view.
type View[N, E any] struct {
	opts   Options
	cfg    layout.Config
	logger *log.Logger

	surface  *svg.Surface[N, E]
	pipeline *pipeline.Pipeline[N, E]
	store    *viewport.Store
	proj     *viewport.Projection
	ctrl     *viewport.Controller
	drag     *viewport.DragSession

	mu      sync.Mutex
	mounted bool
	closed  bool
	done    chan struct{}

	modelMu sync.RWMutex
	model   graph.Model[N, E]

	subsMu sync.Mutex
	subsID int
	subs   map[int]func(Event)
}

// New creates a view. Node and edge templates are required.
func New[N, E any](engine layout.Engine, tpl svg.Templates[N, E], opts Options) (*View[N, E], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	surface, err := svg.NewSurface(tpl)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	v := &View[N, E]{
		opts:    opts,
		cfg:     opts.LayoutConfig(),
		logger:  opts.Logger,
		surface: surface,
		store:   viewport.NewStore(viewport.ViewBox{}),
		done:    make(chan struct{}),
		subs:    make(map[int]func(Event)),
	}
	v.pipeline = pipeline.New(engine, pipeline.Surface[N, E](surface), pipeline.Options{
		Curve:  opts.Curve,
		Logger: opts.Logger,
	})
	v.proj = viewport.NewProjection(v.store, opts.Width, opts.Height)
	v.ctrl = viewport.NewController(v.store, v.proj, v.bounds, viewport.Config{
		ZoomSpeed: opts.ZoomSpeed,
		MinScale:  opts.MinScale,
		MaxScale:  opts.MaxScale,
	})
	v.ctrl.OnEvent(v.emit)
	v.drag = viewport.NewDragSession(v.ctrl)
	return v, nil
}

func (v *View[N, E]) bounds() (geom.Rect, bool) {
	return v.Model().Bounds()
}

// Mount sizes the view-box to the container and runs the first layout.
func (v *View[N, E]) Mount(ctx context.Context, nodes []graph.Node[N], edges []graph.Edge[E]) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.ctrl.SetInitialViewBox()
	v.mounted = true
	return v.update(ctx, nodes, edges)
}

// Update re-runs the layout for new inputs. The view-box is kept; with
// CenterOnChanges the content is centered afterwards.
func (v *View[N, E]) Update(ctx context.Context, nodes []graph.Node[N], edges []graph.Edge[E]) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	if !v.mounted {
		v.ctrl.SetInitialViewBox()
		v.mounted = true
	}
	return v.update(ctx, nodes, edges)
}

func (v *View[N, E]) update(ctx context.Context, nodes []graph.Node[N], edges []graph.Edge[E]) error {
	m, err := v.pipeline.Run(ctx, nodes, edges, v.cfg)
	if err != nil {
		return err
	}
	v.modelMu.Lock()
	v.model = m
	v.modelMu.Unlock()
	v.logger.Debug("layout committed", "nodes", len(m.Nodes), "edges", len(m.Edges))
	v.emit(EventLayout)
	if v.opts.CenterOnChanges && v.ctrl.Center() {
		observability.Viewport().OnCenter(ctx)
	}
	return nil
}

// Wheel zooms around the device point p. Negative deltaY zooms in.
func (v *View[N, E]) Wheel(ctx context.Context, p geom.Point, deltaY float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.opts.EnableZooming {
		return false
	}
	f, ok := v.ctrl.ZoomAt(p, deltaY)
	if ok {
		observability.Viewport().OnZoom(ctx, f)
	}
	return ok
}

// PointerDown starts a drag at p.
func (v *View[N, E]) PointerDown(ctx context.Context, p geom.Point) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.opts.EnablePanning {
		return false
	}
	return v.drag.Start(p)
}

// PointerMove continues a drag.
func (v *View[N, E]) PointerMove(ctx context.Context, p geom.Point) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.opts.EnablePanning {
		return false
	}
	d, ok := v.drag.Move(p)
	if ok {
		observability.Viewport().OnPan(ctx, d.X, d.Y)
	}
	return ok
}

// PointerUp ends a drag.
func (v *View[N, E]) PointerUp(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drag.End()
}

// PanBy pans by (dx, dy) local units.
func (v *View[N, E]) PanBy(ctx context.Context, dx, dy float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.opts.EnablePanning {
		return false
	}
	ok := v.ctrl.PanBy(dx, dy)
	if ok {
		observability.Viewport().OnPan(ctx, dx, dy)
	}
	return ok
}

// ZoomBy scales the view-box size by factor, keeping its origin.
func (v *View[N, E]) ZoomBy(ctx context.Context, factor float64) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.opts.EnableZooming {
		return false, nil
	}
	ok, err := v.ctrl.ZoomBy(factor)
	if ok {
		observability.Viewport().OnZoom(ctx, factor)
	}
	return ok, err
}

// Center centers the rendered content.
func (v *View[N, E]) Center(ctx context.Context) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	ok := v.ctrl.Center()
	if ok {
		observability.Viewport().OnCenter(ctx)
	}
	return ok
}

// Resize changes the container size. The view-box is kept, so the content
// is stretched until the host resets or zooms.
func (v *View[N, E]) Resize(width, height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.proj.Resize(width, height)
}

// Reset sizes the view-box to the container again.
func (v *View[N, E]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ctrl.SetInitialViewBox()
}

// ViewBox returns the current view-box.
func (v *View[N, E]) ViewBox() viewport.ViewBox { return v.store.Get() }

// Size returns the container size.
func (v *View[N, E]) Size() (width, height float64) { return v.proj.Size() }

// Model returns the last committed model.
func (v *View[N, E]) Model() graph.Model[N, E] {
	v.modelMu.RLock()
	defer v.modelMu.RUnlock()
	return v.model
}

// Scale returns container width / view-box width.
func (v *View[N, E]) Scale() float64 { return v.ctrl.Scale() }

// MapPointerToLocal maps a device point to local coordinates.
func (v *View[N, E]) MapPointerToLocal(p geom.Point) (geom.Point, bool) {
	return v.ctrl.Mapper().MapPointerToLocal(p)
}

// Subscribe registers fn for view events.
func (v *View[N, E]) Subscribe(fn func(Event)) (unsubscribe func()) {
	v.subsMu.Lock()
	id := v.subsID
	v.subsID++
	v.subs[id] = fn
	v.subsMu.Unlock()
	return func() {
		v.subsMu.Lock()
		delete(v.subs, id)
		v.subsMu.Unlock()
	}
}

// SubscribeViewBox registers fn for view-box changes.
func (v *View[N, E]) SubscribeViewBox(fn func(viewport.ViewBox)) (unsubscribe func()) {
	return v.store.Subscribe(fn)
}

func (v *View[N, E]) emit(e Event) {
	v.subsMu.Lock()
	fns := make([]func(Event), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.subsMu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// WriteSVG writes the current model as an SVG document of the container
// size showing the current view-box.
func (v *View[N, E]) WriteSVG(w io.Writer) error {
	width, height := v.proj.Size()
	return v.surface.WriteSVG(w, v.store.Get(), width, height)
}

// SVG returns the document written by WriteSVG.
func (v *View[N, E]) SVG() []byte {
	width, height := v.proj.Size()
	return v.surface.Bytes(v.store.Get(), width, height)
}

// Done is closed by Close.
func (v *View[N, E]) Done() <-chan struct{} { return v.done }

// Close ends any drag, drops all subscriptions and stops reactors.
func (v *View[N, E]) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	v.drag.End()
	v.ctrl.Close()
	v.subsMu.Lock()
	v.subs = make(map[int]func(Event))
	v.subsMu.Unlock()
	close(v.done)
	return nil
}
