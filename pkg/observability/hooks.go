// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about layout runs, cache operations, and viewport changes.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Libraries never register hooks themselves; main does. [TracingHooks]
// forwards pipeline and viewport events to OpenTelemetry.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(observability.NewTracingHooks())
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnMeasureStart(ctx, len(nodes))
//	// ... measure ...
//	observability.Pipeline().OnMeasureComplete(ctx, len(nodes), duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the layout pipeline.
type PipelineHooks interface {
	// Measure events
	OnMeasureStart(ctx context.Context, nodeCount int)
	OnMeasureComplete(ctx context.Context, nodeCount int, duration time.Duration, err error)

	// Layout events
	OnLayoutStart(ctx context.Context, engine string, nodeCount, edgeCount int)
	OnLayoutComplete(ctx context.Context, engine string, duration time.Duration, err error)

	// OnCommit fires after the transformed model has been drawn.
	OnCommit(ctx context.Context, nodeCount, edgeCount int, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Viewport Hooks
// =============================================================================

// ViewportHooks receives view-box changes made by the viewport controller.
type ViewportHooks interface {
	// OnZoom records an applied zoom with its scale factor.
	OnZoom(ctx context.Context, factor float64)

	// OnPan records an applied pan.
	OnPan(ctx context.Context, dx, dy float64)

	// OnCenter records a centering.
	OnCenter(ctx context.Context)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnMeasureStart(context.Context, int)                            {}
func (NoopPipelineHooks) OnMeasureComplete(context.Context, int, time.Duration, error)   {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int, int)                {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}
func (NoopPipelineHooks) OnCommit(context.Context, int, int, time.Duration)              {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopViewportHooks is a no-op implementation of ViewportHooks.
type NoopViewportHooks struct{}

func (NoopViewportHooks) OnZoom(context.Context, float64)         {}
func (NoopViewportHooks) OnPan(context.Context, float64, float64) {}
func (NoopViewportHooks) OnCenter(context.Context)                {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	viewportHooks ViewportHooks = NoopViewportHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any layout runs.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetViewportHooks registers custom viewport hooks.
func SetViewportHooks(h ViewportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		viewportHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Viewport returns the registered viewport hooks.
func Viewport() ViewportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return viewportHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	viewportHooks = NoopViewportHooks{}
}
