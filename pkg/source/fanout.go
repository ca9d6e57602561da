package source

import (
	"context"
	"sync"
)

// Fanout shares one source between several consumers. Each subscriber
// gets its own Static source that starts at the latest known version.
type Fanout[N, E any] struct {
	src Source[N, E]

	mu     sync.Mutex
	latest Snapshot[N, E]
	loaded bool
	subs   map[*Static[N, E]]struct{}
}

// NewFanout wraps src.
func NewFanout[N, E any](src Source[N, E]) *Fanout[N, E] {
	return &Fanout[N, E]{src: src, subs: make(map[*Static[N, E]]struct{})}
}

// Load loads the upstream source once and returns the latest version.
func (f *Fanout[N, E]) Load(ctx context.Context) (Snapshot[N, E], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return f.latest, nil
	}
	snap, err := f.src.Load(ctx)
	if err != nil {
		return Snapshot[N, E]{}, err
	}
	f.latest, f.loaded = snap, true
	return snap, nil
}

// Subscribe returns a new per-consumer source. Closing it unsubscribes.
func (f *Fanout[N, E]) Subscribe() *Static[N, E] {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := NewStatic(f.latest)
	f.subs[s] = struct{}{}
	return s
}

// Unsubscribe removes and closes s.
func (f *Fanout[N, E]) Unsubscribe(s *Static[N, E]) {
	f.mu.Lock()
	delete(f.subs, s)
	f.mu.Unlock()
	s.Close()
}

// Len returns the number of subscribers.
func (f *Fanout[N, E]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Run forwards upstream changes to every subscriber until ctx ends or the
// upstream channel closes. Delivery never blocks: a subscriber that falls
// behind loses intermediate versions, not the latest one.
func (f *Fanout[N, E]) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-f.src.Changes():
			if !ok {
				return nil
			}
			f.mu.Lock()
			f.latest, f.loaded = snap, true
			subs := make([]*Static[N, E], 0, len(f.subs))
			for s := range f.subs {
				subs = append(subs, s)
			}
			f.mu.Unlock()

			for _, s := range subs {
				s.Offer(snap)
			}
		}
	}
}
