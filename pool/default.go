package pool

import (
	"sync"

	"github.com/momentics/hioload-cache/config"
)

var (
	defaultOnce    sync.Once
	defaultBuffers *BufferCache
	defaultInt32   *ScalarBoxCache[int32]
	defaultInt64   *ScalarBoxCache[int64]
	defaultUint64  *ScalarBoxCache[uint64]
)

func initDefaults() {
	defaultOnce.Do(func() {
		cfg := config.Default()
		defaultBuffers = BufferCacheFromConfig(cfg)
		defaultInt32 = IntegerBoxCacheFromConfig[int32](cfg)
		defaultInt64 = IntegerBoxCacheFromConfig[int64](cfg)
		defaultUint64 = IntegerBoxCacheFromConfig[uint64](cfg)
	})
}

// DefaultBufferCache returns the process-wide scratch buffer cache so every
// call site recycles into the same slot.
func DefaultBufferCache() *BufferCache {
	initDefaults()
	return defaultBuffers
}

// DefaultInt32Boxes returns the process-wide int32 box cache.
func DefaultInt32Boxes() *ScalarBoxCache[int32] {
	initDefaults()
	return defaultInt32
}

// DefaultInt64Boxes returns the process-wide int64 box cache.
func DefaultInt64Boxes() *ScalarBoxCache[int64] {
	initDefaults()
	return defaultInt64
}

// DefaultUint64Boxes returns the process-wide uint64 box cache.
func DefaultUint64Boxes() *ScalarBoxCache[uint64] {
	initDefaults()
	return defaultUint64
}

// BufferCacheFromConfig builds a BufferCache sized by cfg.
func BufferCacheFromConfig(cfg config.Config) *BufferCache {
	c := NewBufferCache(cfg.BufferDefaultSize, cfg.BufferMaxSize)
	if cfg.TrackStats {
		c.WithStats()
	}
	return c
}

// IntegerBoxCacheFromConfig builds an identity-hashed box cache sized by cfg.
func IntegerBoxCacheFromConfig[T Integer](cfg config.Config) *ScalarBoxCache[T] {
	c := NewIntegerBoxCache[T](cfg.BoxSlots)
	if cfg.TrackStats {
		c.WithStats()
	}
	return c
}
