// File: internal/concurrency/slot.go
// Package concurrency implements a lock-free single-item exchange slot.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Slot is the one-element cousin of RingBuffer: every access is a single
// atomic load, swap or compare-and-swap on one pointer word, padded on both
// sides to keep it off neighbouring cache lines.

package concurrency

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Slot holds at most one *T. The zero value is an empty slot.
type Slot[T any] struct {
	_    cpu.CacheLinePad
	item atomic.Pointer[T]
	_    cpu.CacheLinePad
}

// Take empties the slot and returns its previous occupant (nil if empty).
func (s *Slot[T]) Take() *T {
	return s.item.Swap(nil)
}

// Offer stores v only if the slot is empty. Reports whether v was stored.
func (s *Slot[T]) Offer(v *T) bool {
	if v == nil {
		return false
	}
	return s.item.CompareAndSwap(nil, v)
}

// Peek returns the current occupant without removing it.
func (s *Slot[T]) Peek() *T {
	return s.item.Load()
}

// Empty reports whether the slot currently holds nothing.
func (s *Slot[T]) Empty() bool {
	return s.item.Load() == nil
}
