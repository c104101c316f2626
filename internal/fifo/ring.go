// SPDX-License-Identifier: EPL-2.0

// Package fifo provides a bounded lock-free queue for exactly one
// producer goroutine and one consumer goroutine.
package fifo

import "sync/atomic"

const cacheLine = 64

// Ring is a single-producer single-consumer queue of T.
//
// head and tail only grow; the slot index is the counter masked by the
// power-of-two capacity. The producer publishes a value by storing tail
// after writing the slot, and the consumer frees it by storing head
// after reading it, so neither side ever blocks the other.
type Ring[T any] struct {
	tail atomic.Uint64 // written by the producer
	_    [cacheLine - 8]byte
	head atomic.Uint64 // written by the consumer
	_    [cacheLine - 8]byte

	buf  []T
	mask uint64
}

// New creates a ring holding at least minSize values. The capacity is
// rounded up to the next power of two.
func New[T any](minSize int) *Ring[T] {
	size := 1
	for size < minSize {
		size <<= 1
	}
	return &Ring[T]{
		buf:  make([]T, size),
		mask: uint64(size - 1),
	}
}

// Push appends v and reports false when the ring is full.
// Producer only.
func (r *Ring[T]) Push(v T) bool {
	t := r.tail.Load()
	if t-r.head.Load() == uint64(len(r.buf)) {
		return false
	}

	r.buf[t&r.mask] = v
	r.tail.Store(t + 1)
	return true
}

// Pop removes the oldest value. ok is false when the ring is empty.
// Consumer only.
func (r *Ring[T]) Pop() (v T, ok bool) {
	h := r.head.Load()
	if h == r.tail.Load() {
		return v, false
	}

	idx := h & r.mask
	v = r.buf[idx]
	var zero T
	r.buf[idx] = zero
	r.head.Store(h + 1)
	return v, true
}

// Len is a snapshot; it may be stale by the time the caller looks at it.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

func (r *Ring[T]) Cap() int { return len(r.buf) }
