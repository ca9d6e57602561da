package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of graphview spans.
const TracerName = "github.com/matzehuels/graphview"

// Tracer returns the graphview tracer from the global provider. Without a
// configured provider the returned tracer is a no-op.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartRunSpan starts the span covering one layout pipeline run.
func StartRunSpan(ctx context.Context, nodeCount, edgeCount int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("graphview.nodes", nodeCount),
			attribute.Int("graphview.edges", edgeCount),
		),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// TracingHooks turns pipeline and viewport events into span events on the
// span carried by ctx. It implements PipelineHooks and ViewportHooks.
type TracingHooks struct{}

// NewTracingHooks returns hooks that annotate the active span.
func NewTracingHooks() *TracingHooks { return &TracingHooks{} }

func (h *TracingHooks) event(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (h *TracingHooks) OnMeasureStart(ctx context.Context, nodeCount int) {
	h.event(ctx, "measure.start", attribute.Int("nodes", nodeCount))
}

func (h *TracingHooks) OnMeasureComplete(ctx context.Context, nodeCount int, d time.Duration, err error) {
	h.event(ctx, "measure.complete", attribute.Int("nodes", nodeCount), attribute.Int64("duration_ms", d.Milliseconds()))
	if err != nil {
		RecordError(trace.SpanFromContext(ctx), err)
	}
}

func (h *TracingHooks) OnLayoutStart(ctx context.Context, engine string, nodeCount, edgeCount int) {
	h.event(ctx, "layout.start",
		attribute.String("engine", engine),
		attribute.Int("nodes", nodeCount),
		attribute.Int("edges", edgeCount),
	)
}

func (h *TracingHooks) OnLayoutComplete(ctx context.Context, engine string, d time.Duration, err error) {
	h.event(ctx, "layout.complete", attribute.String("engine", engine), attribute.Int64("duration_ms", d.Milliseconds()))
	if err != nil {
		RecordError(trace.SpanFromContext(ctx), fmt.Errorf("%s: %w", engine, err))
	}
}

func (h *TracingHooks) OnCommit(ctx context.Context, nodeCount, edgeCount int, d time.Duration) {
	h.event(ctx, "commit",
		attribute.Int("nodes", nodeCount),
		attribute.Int("edges", edgeCount),
		attribute.Int64("duration_ms", d.Milliseconds()),
	)
}

func (h *TracingHooks) OnZoom(ctx context.Context, factor float64) {
	h.event(ctx, "viewport.zoom", attribute.Float64("factor", factor))
}

func (h *TracingHooks) OnPan(ctx context.Context, dx, dy float64) {
	h.event(ctx, "viewport.pan", attribute.Float64("dx", dx), attribute.Float64("dy", dy))
}

func (h *TracingHooks) OnCenter(ctx context.Context) {
	h.event(ctx, "viewport.center")
}

var (
	_ PipelineHooks = (*TracingHooks)(nil)
	_ ViewportHooks = (*TracingHooks)(nil)
)
