package pool_test

import (
	"encoding/binary"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-cache/api"
	"github.com/momentics/hioload-cache/config"
	"github.com/momentics/hioload-cache/pool"
)

func TestBufferCacheAllocateNeverNil(t *testing.T) {
	c := pool.NewBufferCache(32768, 65536)
	for i := 0; i < 3; i++ {
		buf := c.Allocate()
		require.NotNil(t, buf)
		assert.GreaterOrEqual(t, len(*buf), 32768)
	}
}

func TestBufferCacheReturnsFreedBuffer(t *testing.T) {
	c := pool.NewBufferCache(32768, 65536)
	for _, n := range []int{32768, 40000, 65536} {
		b := make([]byte, n)
		c.Free(&b)
		got := c.Allocate()
		assert.Same(t, &b, got, "length %d", n)
		assert.Len(t, *got, n)
	}
}

func TestBufferCacheDiscardsOutOfRange(t *testing.T) {
	c := pool.NewBufferCache(32768, 65536)
	for _, n := range []int{0, 100, 32767, 65537, 1_000_000} {
		b := make([]byte, n)
		c.Free(&b)
		got := c.Allocate()
		assert.NotSame(t, &b, got, "length %d", n)
		assert.Len(t, *got, 32768)
	}
}

func TestBufferCacheOccupiedSlotDiscards(t *testing.T) {
	c := pool.NewBufferCache(1024, 2048)
	a := make([]byte, 1024)
	b := make([]byte, 1024)
	c.Free(&a)
	c.Free(&b)

	assert.Same(t, &a, c.Allocate())
	assert.NotSame(t, &b, c.Allocate())
}

func TestBufferCacheFreeNil(t *testing.T) {
	c := pool.NewBufferCache(0, 0).WithStats()
	c.Free(nil)
	assert.Equal(t, api.CacheStats{}, c.Stats())
	assert.Equal(t, 32*1024, c.DefaultSize())
	assert.Equal(t, 64*1024, c.MaxSize())
}

func TestBufferCacheKeepsStaleContents(t *testing.T) {
	c := pool.NewBufferCache(64, 64)
	buf := c.Allocate()
	copy(*buf, "stale")
	c.Free(buf)
	again := c.Allocate()
	assert.Equal(t, "stale", string((*again)[:5]))
}

func TestBufferCacheWithFreesOnError(t *testing.T) {
	c := pool.NewBufferCache(64, 128)
	var seen unsafe.Pointer
	boom := errors.New("boom")
	err := c.With(func(buf []byte) error {
		seen = unsafe.Pointer(unsafe.SliceData(buf))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, seen, unsafe.Pointer(unsafe.SliceData(*c.Allocate())))
}

func TestBufferCacheWithFreesOnPanic(t *testing.T) {
	c := pool.NewBufferCache(64, 128)
	var seen unsafe.Pointer
	assert.Panics(t, func() {
		_ = c.With(func(buf []byte) error {
			seen = unsafe.Pointer(unsafe.SliceData(buf))
			panic("marshal failed")
		})
	})
	assert.Equal(t, seen, unsafe.Pointer(unsafe.SliceData(*c.Allocate())))
}

func TestBufferCacheSteadyStateDoesNotAllocate(t *testing.T) {
	c := pool.NewBufferCache(4096, 8192)
	c.Free(c.Allocate())
	allocs := testing.AllocsPerRun(100, func() {
		c.Free(c.Allocate())
	})
	assert.Zero(t, allocs)
}

func TestBufferCacheStats(t *testing.T) {
	c := pool.NewBufferCache(16, 32).WithStats()
	a := c.Allocate() // miss
	small := make([]byte, 8)
	c.Free(&small) // out of range
	c.Free(a)      // retained
	b := make([]byte, 16)
	c.Free(&b)       // slot occupied
	_ = c.Allocate() // hit

	want := api.CacheStats{Hits: 1, Misses: 1, Retained: 1, Discarded: 2}
	if diff := cmp.Diff(want, c.Stats()); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

// Every holder tags the buffer and an ownership table; a buffer handed to two
// holders at once shows up either as a duplicate owner or a clobbered tag.
func TestBufferCacheNoDoubleIssue(t *testing.T) {
	c := pool.NewBufferCache(64, 64)
	const workers = 16
	const iterations = 5000

	var owners sync.Map
	var violations atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			for i := uint64(0); i < iterations; i++ {
				buf := c.Allocate()
				key := unsafe.SliceData(*buf)
				if _, dup := owners.LoadOrStore(key, id); dup {
					violations.Add(1)
				}
				binary.LittleEndian.PutUint64((*buf)[0:], id)
				binary.LittleEndian.PutUint64((*buf)[8:], i)
				runtime.Gosched()
				if binary.LittleEndian.Uint64((*buf)[0:]) != id ||
					binary.LittleEndian.Uint64((*buf)[8:]) != i {
					violations.Add(1)
				}
				owners.Delete(key)
				c.Free(buf)
			}
		}(uint64(w))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for workers")
	}
	assert.Zero(t, violations.Load())
}

func TestDefaultCachesAreSingletons(t *testing.T) {
	assert.Same(t, pool.DefaultBufferCache(), pool.DefaultBufferCache())
	assert.Same(t, pool.DefaultInt32Boxes(), pool.DefaultInt32Boxes())
	assert.Same(t, pool.DefaultInt64Boxes(), pool.DefaultInt64Boxes())
	assert.Same(t, pool.DefaultUint64Boxes(), pool.DefaultUint64Boxes())
	assert.Equal(t, 65521, pool.DefaultInt64Boxes().Len())
	assert.Equal(t, 32768, pool.DefaultBufferCache().DefaultSize())
}

func BenchmarkBufferCacheAllocateFree(b *testing.B) {
	c := pool.NewBufferCache(0, 0)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := c.Allocate()
			(*buf)[0] = 1
			c.Free(buf)
		}
	})
}

func TestBufferCacheBoundsNormalized(t *testing.T) {
	c := pool.NewBufferCache(4096, 1024)
	assert.Equal(t, 4096, c.DefaultSize())
	assert.Equal(t, 4096, c.MaxSize())
}

func TestCachesFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.BoxSlots = 101
	cfg.BufferDefaultSize = 512
	cfg.BufferMaxSize = 1024
	cfg.TrackStats = true

	buffers := pool.BufferCacheFromConfig(cfg)
	boxes := pool.IntegerBoxCacheFromConfig[int32](cfg)
	assert.Equal(t, 512, len(*buffers.Allocate()))
	assert.Equal(t, 101, boxes.Len())
	boxes.Box(3)
	assert.Equal(t, int64(1), boxes.Stats().Misses)
	assert.Equal(t, int64(1), buffers.Stats().Misses)
}
