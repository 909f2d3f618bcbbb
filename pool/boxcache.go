// File: pool/boxcache.go
// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-free, best-effort cache of boxed scalars. A fixed array of atomic
// slots is addressed by hash; collisions overwrite. Every hit is re-checked
// for equality against the requested value, so a lost race only costs an
// allocation, never a wrong answer.

package pool

import (
	"hash/maphash"
	"sync/atomic"

	"github.com/momentics/hioload-cache/api"
	"github.com/momentics/hioload-cache/config"
)

// Integer is the set of types hashed by identity in NewIntegerBoxCache.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// ScalarBoxCache reuses *T handles for equal values of T.
type ScalarBoxCache[T comparable] struct {
	slots []atomic.Pointer[T]
	hash  func(T) uint64
	stats *counters // nil unless WithStats was called
}

// NewScalarBoxCache creates a cache with the given slot count.
// slots <= 0 selects config.DefaultBoxSlots; a nil hash selects a seeded
// maphash over T.
func NewScalarBoxCache[T comparable](slots int, hash func(T) uint64) *ScalarBoxCache[T] {
	if slots <= 0 {
		slots = config.DefaultBoxSlots
	}
	if hash == nil {
		seed := maphash.MakeSeed()
		hash = func(v T) uint64 { return maphash.Comparable(seed, v) }
	}
	return &ScalarBoxCache[T]{
		slots: make([]atomic.Pointer[T], slots),
		hash:  hash,
	}
}

// NewIntegerBoxCache creates a cache that hashes integers by value, so v and
// v+slots always share a slot.
func NewIntegerBoxCache[T Integer](slots int) *ScalarBoxCache[T] {
	return NewScalarBoxCache[T](slots, func(v T) uint64 { return uint64(v) })
}

// WithStats enables hit/miss counting. Call before the cache is shared.
func (c *ScalarBoxCache[T]) WithStats() *ScalarBoxCache[T] {
	c.stats = new(counters)
	return c
}

// Get returns a handle equal to *v, or nil without touching the cache if v
// is nil. The returned handle may be shared with other callers.
func (c *ScalarBoxCache[T]) Get(v *T) *T {
	if v == nil {
		return nil
	}
	return c.Box(*v)
}

// Box returns a handle holding v, reusing the slot occupant when it is equal.
func (c *ScalarBoxCache[T]) Box(v T) *T {
	slot := &c.slots[c.index(v)]
	if cur := slot.Load(); cur != nil && *cur == v {
		c.stats.hit()
		return cur
	}
	c.stats.miss()
	boxed := new(T)
	*boxed = v
	slot.Store(boxed)
	return boxed
}

// Len returns the fixed slot count.
func (c *ScalarBoxCache[T]) Len() int {
	return len(c.slots)
}

// Stats returns a snapshot of the counters.
func (c *ScalarBoxCache[T]) Stats() api.CacheStats {
	return c.stats.snapshot()
}

func (c *ScalarBoxCache[T]) index(v T) int {
	h := c.hash(v) &^ (1 << 63)
	return int(h % uint64(len(c.slots)))
}

var _ api.BoxCache[int64] = (*ScalarBoxCache[int64])(nil)
