// Package arena provides fixed-capacity, bump-allocated slot pools.
//
// An Arena reserves all of its slots when it is created and hands them out in
// order. Individual slots are never returned: removing an entity from a tree or
// list leaves its slot allocated, so pointers handed out by Alloc stay valid for
// the lifetime of the arena.
package arena

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrCapacityExceeded is carried by the panic raised when an arena runs out of
// slots. Capacities are sized above the input bounds, so exhaustion is a
// configuration error rather than a normal outcome.
var ErrCapacityExceeded = errors.New("arena: capacity exceeded")

// Arena is a bump allocator over a pre-reserved slice of T.
//
// Alloc, Reset and Allocated must be called from a single goroutine. Len may
// be read from any goroutine, which lets a metrics scrape observe usage while
// commands allocate.
type Arena[T any] struct {
	name  string
	slots []T
	next  atomic.Int64
}

// New reserves capacity slots of T. The name is used in panics and metrics.
func New[T any](name string, capacity int) *Arena[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Arena[T]{
		name:  name,
		slots: make([]T, capacity),
	}
}

// Alloc returns the next free slot, zeroed.
// It panics with an error wrapping ErrCapacityExceeded when the arena is full.
func (a *Arena[T]) Alloc() *T {
	i := a.next.Load()
	if i == int64(len(a.slots)) {
		panic(fmt.Errorf("%w: %s pool holds %d slots", ErrCapacityExceeded, a.name, len(a.slots)))
	}
	s := &a.slots[i]
	var zero T
	*s = zero
	a.next.Store(i + 1)
	return s
}

// Reset rewinds the bump pointer so every slot can be handed out again.
// Pointers obtained before Reset alias the slots returned after it.
func (a *Arena[T]) Reset() { a.next.Store(0) }

// Allocated returns the slots handed out since creation or the last Reset,
// in allocation order. The slice aliases the arena's storage.
func (a *Arena[T]) Allocated() []T { return a.slots[:a.next.Load()] }

// Len returns the number of slots handed out since creation or the last Reset.
// It is safe to call concurrently with Alloc.
func (a *Arena[T]) Len() int { return int(a.next.Load()) }

// Cap returns the total number of slots.
func (a *Arena[T]) Cap() int { return len(a.slots) }

// Name returns the pool name.
func (a *Arena[T]) Name() string { return a.name }
