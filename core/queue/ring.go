// Package queue provides the bounded ring buffer backing the order-request,
// matching and commission-payment queues. Capacity is fixed at construction,
// entries are consumed strictly from the front, and wrap-around indexing is
// computed with modulo arithmetic so front+len may exceed capacity safely.
package queue

import "errors"

var (
	ErrQueueFull  = errors.New("queue is at capacity")
	ErrQueueEmpty = errors.New("queue is empty")
)

// Ring is a fixed-capacity FIFO. It is not safe for concurrent use, the
// owning operation holds it exclusively for the duration of a call.
type Ring[T any] struct {
	items []T
	front int
	count int
}

// New returns an empty ring of the given capacity.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("queue capacity must be positive")
	}
	return &Ring[T]{
		items: make([]T, capacity),
	}
}

// Len returns the number of queued entries.
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// Empty reports whether no entries are queued.
func (r *Ring[T]) Empty() bool {
	return r.count == 0
}

// PushBack appends an entry at the tail.
func (r *Ring[T]) PushBack(item T) error {
	if r.count == len(r.items) {
		return ErrQueueFull
	}
	r.items[(r.front+r.count)%len(r.items)] = item
	r.count++
	return nil
}

// Front returns the head entry without consuming it.
func (r *Ring[T]) Front() (T, error) {
	var zero T
	if r.count == 0 {
		return zero, ErrQueueEmpty
	}
	return r.items[r.front], nil
}

// PopFront consumes and returns the head entry. Advancing front is what makes
// double-processing of the same head impossible.
func (r *Ring[T]) PopFront() (T, error) {
	var zero T
	if r.count == 0 {
		return zero, ErrQueueEmpty
	}
	item := r.items[r.front]
	r.items[r.front] = zero
	r.front = (r.front + 1) % len(r.items)
	r.count--
	return item, nil
}

// At returns the entry i places behind the front, for read-only inspection.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.count {
		panic("queue index out of range")
	}
	return r.items[(r.front+i)%len(r.items)]
}

// Items returns the queued entries in FIFO order.
func (r *Ring[T]) Items() []T {
	out := make([]T, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.items[(r.front+i)%len(r.items)])
	}
	return out
}
