// File: pool/buffercache.go
// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-slot recycler for short-lived scratch buffers. Allocate swaps the
// slot empty; Free stores only into an empty slot. A buffer is therefore
// owned by exactly one holder between Allocate and Free.
// Buffers are never cleared.

package pool

import (
	"github.com/momentics/hioload-cache/api"
	"github.com/momentics/hioload-cache/config"
	"github.com/momentics/hioload-cache/internal/concurrency"
)

// BufferCache recycles the most recently freed buffer whose length lies in
// [defaultSize, maxSize].
type BufferCache struct {
	slot        concurrency.Slot[[]byte]
	defaultSize int
	maxSize     int
	stats       *counters
}

// NewBufferCache creates an empty cache. Non-positive sizes fall back to
// config.DefaultBufferSize and config.MaxBufferSize; maxSize is raised to
// defaultSize if smaller.
func NewBufferCache(defaultSize, maxSize int) *BufferCache {
	if defaultSize <= 0 {
		defaultSize = config.DefaultBufferSize
	}
	if maxSize <= 0 {
		maxSize = config.MaxBufferSize
	}
	if maxSize < defaultSize {
		maxSize = defaultSize
	}
	return &BufferCache{defaultSize: defaultSize, maxSize: maxSize}
}

// WithStats enables reuse counting. Call before the cache is shared.
func (c *BufferCache) WithStats() *BufferCache {
	c.stats = new(counters)
	return c
}

// Allocate returns the cached buffer, or a new one of the default size.
func (c *BufferCache) Allocate() *[]byte {
	if buf := c.slot.Take(); buf != nil {
		c.stats.hit()
		return buf
	}
	c.stats.miss()
	buf := make([]byte, c.defaultSize)
	return &buf
}

// Free offers buf for reuse. Out-of-range buffers, and any buffer arriving
// while the slot is occupied, are left to the garbage collector.
func (c *BufferCache) Free(buf *[]byte) {
	if buf == nil {
		return
	}
	if n := len(*buf); n < c.defaultSize || n > c.maxSize {
		c.stats.discard()
		return
	}
	if c.slot.Offer(buf) {
		c.stats.retain()
		return
	}
	c.stats.discard()
}

// With runs fn on a scratch buffer and frees it on every exit path.
func (c *BufferCache) With(fn func(buf []byte) error) error {
	buf := c.Allocate()
	defer c.Free(buf)
	return fn(*buf)
}

// DefaultSize returns the size of freshly allocated buffers.
func (c *BufferCache) DefaultSize() int { return c.defaultSize }

// MaxSize returns the largest retained buffer length.
func (c *BufferCache) MaxSize() int { return c.maxSize }

// Stats returns a snapshot of the counters.
func (c *BufferCache) Stats() api.CacheStats {
	return c.stats.snapshot()
}

var _ api.ScratchBuffers = (*BufferCache)(nil)
