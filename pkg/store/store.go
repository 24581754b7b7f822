// Package store holds the copy-on-write state container shared by the
// comment, feed, inbox and notification stores.
package store

import "sync"

// Listener receives every published state together with its version.
// Listeners may be called concurrently from different mutating goroutines,
// so they must tolerate versions arriving out of order.
type Listener[S any] func(state S, version uint64)

type Store[S any] struct {
	mu        sync.RWMutex
	state     S
	version   uint64
	listeners map[int]Listener[S]
	nextId    int
}

func New[S any](initial S) *Store[S] {
	return &Store[S]{
		state:     initial,
		listeners: map[int]Listener[S]{},
	}
}

// Get returns the current state. The returned value must be treated as
// read-only: transitions always replace slices instead of editing them.
func (s *Store[S]) Get() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the current state and its version.
func (s *Store[S]) Snapshot() (S, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.version
}

func (s *Store[S]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Update runs fn against the current state while holding the write lock.
// fn returns the next state and whether it should be committed; returning
// false leaves state and version untouched and notifies nobody. This makes
// check-and-set transitions (reentrancy guards, generation checks) atomic.
func (s *Store[S]) Update(fn func(S) (S, bool)) (S, bool) {
	s.mu.Lock()
	next, commit := fn(s.state)
	if !commit {
		cur := s.state
		s.mu.Unlock()
		return cur, false
	}
	s.state = next
	s.version++
	version := s.version
	listeners := make([]Listener[S], 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	// Notify outside the lock so listeners can read the store
	for _, l := range listeners {
		l(next, version)
	}
	return next, true
}

// Set replaces the state unconditionally.
func (s *Store[S]) Set(state S) {
	s.Update(func(S) (S, bool) { return state, true })
}

// Subscribe registers l and returns a function removing it again.
func (s *Store[S]) Subscribe(l Listener[S]) func() {
	s.mu.Lock()
	id := s.nextId
	s.nextId++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
