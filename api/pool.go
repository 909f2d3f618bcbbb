// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines the allocation-avoidance contracts: boxed scalar reuse and
// scratch buffer recycling for hot call paths.

package api

// BoxCache hands out heap handles for small values, reusing a previously
// allocated handle for an equal value when one is cached.
//
// Handles are shared between callers and must be treated as read-only.
type BoxCache[T comparable] interface {
	// Get returns a handle holding a value equal to *v, or nil if v is nil.
	Get(v *T) *T
}

// ScratchBuffers provides short-lived byte buffers.
//
// Contents of a returned buffer are stale and must be overwritten before use.
// Forgetting to Free is not an error, only a lost reuse.
type ScratchBuffers interface {
	// Allocate returns a buffer of at least the default size. Never nil.
	Allocate() *[]byte

	// Free offers a buffer back for reuse; buf must not be used afterwards.
	Free(buf *[]byte)
}

// CacheStats aggregates hit/miss accounting for a cache.
// All counters stay zero unless stats tracking is enabled.
type CacheStats struct {
	Hits      int64 // Lookups served from the cache
	Misses    int64 // Lookups that allocated
	Retained  int64 // Frees stored into the cache
	Discarded int64 // Frees dropped (out of range or slot occupied)
}
