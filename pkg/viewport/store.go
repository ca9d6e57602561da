package viewport

import (
	"sort"
	"sync"
)

// Store holds the current view-box. All methods are safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	vb   ViewBox
	subs listeners[ViewBox]
}

// NewStore returns a store holding vb.
func NewStore(vb ViewBox) *Store {
	return &Store{vb: vb}
}

// Get returns the current view-box.
func (s *Store) Get() ViewBox {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vb
}

// Set replaces the view-box and notifies subscribers.
func (s *Store) Set(vb ViewBox) {
	s.mu.Lock()
	s.vb = vb
	s.mu.Unlock()
	s.subs.emit(vb)
}

// Update applies fn to the current view-box as one atomic step. When fn
// reports no change the store is untouched and nobody is notified.
// Update returns the resulting view-box and whether it changed.
func (s *Store) Update(fn func(ViewBox) (ViewBox, bool)) (ViewBox, bool) {
	s.mu.Lock()
	next, ok := fn(s.vb)
	if !ok {
		cur := s.vb
		s.mu.Unlock()
		return cur, false
	}
	s.vb = next
	s.mu.Unlock()
	s.subs.emit(next)
	return next, true
}

// Subscribe registers fn to be called with the new view-box after every
// change. Callbacks run on the mutating goroutine, outside the store lock.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(ViewBox)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// listeners is an ordered set of callbacks.
type listeners[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners[T]) emit(v T) {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), len(ids))
	for i, id := range ids {
		fns[i] = l.fns[id]
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

func (l *listeners[T]) clear() {
	l.mu.Lock()
	l.fns = nil
	l.mu.Unlock()
}
