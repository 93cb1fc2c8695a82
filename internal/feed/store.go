// Package feed keeps the live news and gallery lists: an initial REST load
// kept current by push events from the live channel.
package feed

import (
	"slices"
	"sync"
)

// Store is a mutex-guarded list with a loading flag. All mutation goes
// through Update so concurrent push events and fetches never lose writes.
type Store[T any] struct {
	mu      sync.Mutex
	items   []T
	loading bool
	subs    map[uint64]chan struct{}
	nextSub uint64
}

// NewStore returns an empty store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{items: []T{}, subs: make(map[uint64]chan struct{})}
}

// Update replaces the list with fn(latest).
func (s *Store[T]) Update(fn func(prev []T) []T) {
	s.mu.Lock()
	next := fn(slices.Clone(s.items))
	if next == nil {
		next = []T{}
	}
	s.items = next
	s.mu.Unlock()
	s.notify()
}

// Replace sets the list wholesale.
func (s *Store[T]) Replace(items []T) {
	s.Update(func([]T) []T { return slices.Clone(items) })
}

// Items returns a copy of the current list.
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Len returns the number of items.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Loading reports whether a fetch is in flight.
func (s *Store[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store[T]) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.notify()
}

// Subscribe returns a channel signalled after each change. Signals coalesce;
// readers call Items for the current state.
func (s *Store[T]) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store[T]) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
