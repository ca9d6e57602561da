package source

import (
	"context"
	"sync"
)

// Static is an in-memory source. Set publishes a new version.
type Static[N, E any] struct {
	mu      sync.Mutex
	snap    Snapshot[N, E]
	changes chan Snapshot[N, E]
	done    chan struct{}
	closed  bool
}

// NewStatic returns a source holding snap.
func NewStatic[N, E any](snap Snapshot[N, E]) *Static[N, E] {
	return &Static[N, E]{
		snap:    snap,
		changes: make(chan Snapshot[N, E], 16),
		done:    make(chan struct{}),
	}
}

// Load implements Source.
func (s *Static[N, E]) Load(ctx context.Context) (Snapshot[N, E], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

// Changes implements Source.
func (s *Static[N, E]) Changes() <-chan Snapshot[N, E] { return s.changes }

// Set replaces the graph and publishes it. It blocks while the change
// buffer is full and returns false once the source is closed or ctx ends.
func (s *Static[N, E]) Set(ctx context.Context, snap Snapshot[N, E]) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.snap = snap
	s.mu.Unlock()

	select {
	case s.changes <- snap:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Offer replaces the graph and publishes it without blocking. When the
// change buffer is full the oldest queued version is dropped, so a slow
// consumer always finds the latest version at the end of its queue.
func (s *Static[N, E]) Offer(snap Snapshot[N, E]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.snap = snap
	for {
		select {
		case s.changes <- snap:
			return true
		default:
		}
		select {
		case <-s.changes:
		default:
		}
	}
}

// Close implements Source.
func (s *Static[N, E]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}
