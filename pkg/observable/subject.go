// Package observable provides a small publish/subscribe value holder.
package observable

import "sync"

// Subject holds a current value and pushes every new value to its listeners.
// New listeners receive the current value immediately.
type Subject[T any] struct {
	mu        sync.RWMutex
	value     T
	listeners map[uint64]func(T)
	nextID    uint64
}

// NewSubject creates a subject holding initial
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{
		value:     initial,
		listeners: make(map[uint64]func(T)),
	}
}

// Value returns the current value
func (s *Subject[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Next replaces the current value and notifies every listener synchronously,
// in subscription order. Listeners run without the subject's lock held.
func (s *Subject[T]) Next(value T) {
	s.mu.Lock()
	s.value = value
	listeners := s.snapshot()
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(value)
	}
}

// Subscribe registers a listener and returns a function that removes it.
// The listener is called with the current value before Subscribe returns.
func (s *Subject[T]) Subscribe(listener func(T)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	current := s.value
	s.mu.Unlock()

	listener(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Len returns the number of registered listeners
func (s *Subject[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

// snapshot returns the listeners ordered by subscription; callers hold s.mu
func (s *Subject[T]) snapshot() []func(T) {
	listeners := make([]func(T), 0, len(s.listeners))
	for id := uint64(0); id < s.nextID; id++ {
		if listener, ok := s.listeners[id]; ok {
			listeners = append(listeners, listener)
		}
	}
	return listeners
}
