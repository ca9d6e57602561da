package observability

import (
	"context"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracerProvider wraps the OpenTelemetry SDK provider installed by
// InitTracing.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// InitTracing installs a global tracer provider whose finished spans are
// written to logger at debug level, and registers TracingHooks for pipeline
// and viewport events.
func InitTracing(logger *log.Logger) *TracerProvider {
	if logger == nil {
		logger = log.Default()
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(&logSpanProcessor{logger: logger}),
	)
	otel.SetTracerProvider(provider)

	hooks := NewTracingHooks()
	SetPipelineHooks(hooks)
	SetViewportHooks(hooks)

	return &TracerProvider{provider: provider}
}

// Shutdown flushes and stops the provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

// logSpanProcessor logs each ended span with its events.
type logSpanProcessor struct {
	logger *log.Logger
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	kv := []any{"duration", s.EndTime().Sub(s.StartTime())}
	for _, a := range s.Attributes() {
		kv = append(kv, string(a.Key), a.Value.Emit())
	}
	if st := s.Status(); st.Description != "" {
		kv = append(kv, "error", st.Description)
	}
	p.logger.Debug("span "+s.Name(), kv...)
	for _, ev := range s.Events() {
		p.logger.Debug("  "+ev.Name, "at", ev.Time.Sub(s.StartTime()))
	}
}

func (p *logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }
