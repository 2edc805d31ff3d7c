// Package resource provides shared ownership of GPU objects.
//
// A [Shared] cell owns a value and a destroy function. Every owner holds its
// own [Handle] onto the cell; the value is destroyed when the last handle is
// released. This is how descriptor-set layouts are shared between a builder,
// the render groups it creates, and any other group that asks the factory for
// an identical layout.
package resource

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrDestroyed is returned when acquiring a reference to a value that has
// already been destroyed.
var ErrDestroyed = errors.New("resource: value already destroyed")

// Shared is a reference-counted cell around a GPU object.
//
// Shared is safe for concurrent use.
type Shared[T any] struct {
	mu      sync.Mutex
	value   T
	refs    int
	dead    bool
	destroy func(T)
}

// NewShared wraps value and returns the first handle onto it.
// destroy runs exactly once, when the last handle is released.
func NewShared[T any](value T, destroy func(T)) *Handle[T] {
	s := &Shared[T]{value: value, refs: 1, destroy: destroy}
	return &Handle[T]{shared: s}
}

// Acquire returns a new handle onto the cell.
// Fails with ErrDestroyed once the last handle has been released.
func (s *Shared[T]) Acquire() (*Handle[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dead {
		return nil, ErrDestroyed
	}
	s.refs++
	return &Handle[T]{shared: s}, nil
}

// Refs returns the number of live handles.
func (s *Shared[T]) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// Alive reports whether the value has not been destroyed yet.
func (s *Shared[T]) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dead
}

func (s *Shared[T]) release() {
	s.mu.Lock()
	s.refs--
	last := s.refs == 0
	if last {
		s.dead = true
	}
	s.mu.Unlock()

	// destroy may re-enter the owner of the cell (cache eviction), so it
	// runs without holding mu.
	if last && s.destroy != nil {
		s.destroy(s.value)
	}
}

// Handle is one owner's reference onto a [Shared] value.
//
// Each handle must be released exactly once; releasing it again is a no-op.
type Handle[T any] struct {
	shared   *Shared[T]
	released atomic.Bool
}

// Get returns the shared value.
func (h *Handle[T]) Get() T {
	return h.shared.value
}

// Shared returns the cell this handle points to.
// Two handles refer to the same object iff their cells are equal.
func (h *Handle[T]) Shared() *Shared[T] {
	return h.shared
}

// Clone returns a new handle onto the same value.
// Panics if h has already been released.
func (h *Handle[T]) Clone() *Handle[T] {
	if h.released.Load() {
		panic("resource: Clone of released handle")
	}
	c, err := h.shared.Acquire()
	if err != nil {
		panic("resource: Clone of destroyed value")
	}
	return c
}

// Release drops this handle's reference. The value is destroyed when the
// last reference goes away.
func (h *Handle[T]) Release() {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return
	}
	h.shared.release()
}

// Released reports whether this handle has been released.
func (h *Handle[T]) Released() bool {
	return h.released.Load()
}

// ReleaseAll releases every handle in hs in order.
func ReleaseAll[T any](hs []*Handle[T]) {
	for _, h := range hs {
		h.Release()
	}
}
