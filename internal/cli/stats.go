package cli

import (
	"context"
	"sync/atomic"
)

// cacheStats counts layout cache hits and misses of one command run.
type cacheStats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (s *cacheStats) OnCacheHit(context.Context, string)      { s.hits.Add(1) }
func (s *cacheStats) OnCacheMiss(context.Context, string)     { s.misses.Add(1) }
func (s *cacheStats) OnCacheSet(context.Context, string, int) {}

// hit reports whether every lookup was served from the cache.
func (s *cacheStats) hit() bool {
	return s.hits.Load() > 0 && s.misses.Load() == 0
}
