package layout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphview/pkg/cache"
	"github.com/matzehuels/graphview/pkg/observability"
)

// Cached wraps an engine and reuses results for identical inputs.
//
// Cache errors never fail a layout: a broken backend degrades to calling
// the inner engine every time.
type Cached struct {
	inner  Engine
	name   string
	store  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// CachedOption configures a Cached engine.
type CachedOption func(*Cached)

// WithKeyer sets the key derivation. The default is cache.NewDefaultKeyer().
func WithKeyer(k cache.Keyer) CachedOption {
	return func(c *Cached) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithTTL sets the entry lifetime. The default is cache.LayoutTTL.
func WithTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) { c.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) CachedOption {
	return func(c *Cached) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCached wraps inner. The name identifies the engine in cache keys so
// results of different engines never collide.
func NewCached(inner Engine, name string, store cache.Cache, opts ...CachedOption) *Cached {
	if store == nil {
		store = cache.NewNullCache()
	}
	c := &Cached{
		inner:  inner,
		name:   name,
		store:  store,
		keyer:  cache.NewDefaultKeyer(),
		ttl:    cache.LayoutTTL,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Layout returns the cached result for in, computing and storing it on a
// miss.
func (c *Cached) Layout(ctx context.Context, in Input) (Result, error) {
	hash, err := cache.HashJSON(in)
	if err != nil {
		return c.inner.Layout(ctx, in)
	}
	key := c.keyer.LayoutKey(hash, cache.LayoutKeyOpts{Engine: c.name})

	if data, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("layout cache read failed", "err", err)
	} else if ok {
		var res Result
		if err := json.Unmarshal(data, &res); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			c.logger.Debug("layout cache hit", "key", shortKey(key))
			return res, nil
		}
		c.logger.Warn("discarding corrupt layout cache entry", "key", shortKey(key))
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	res, err := c.inner.Layout(ctx, in)
	if err != nil {
		return Result{}, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("layout cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return res, nil
}

// Name returns the wrapped engine's name.
func (c *Cached) Name() string { return c.name }

func shortKey(k string) string {
	if len(k) > 20 {
		return k[:20]
	}
	return k
}
