// File: internal/stress/stress.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrent stress harness for the box and buffer caches.
//
// Each worker keeps a FIFO of held buffers so allocations and frees from
// different goroutines interleave. Every held buffer is registered in an
// ownership table and stamped with (worker, sequence); a buffer handed to two
// holders at once is caught either by the table or by a clobbered stamp.

package stress

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/eapache/queue"

	"github.com/momentics/hioload-cache/api"
	"github.com/momentics/hioload-cache/pool"
)

const (
	tagSize       = 16
	ctxCheckEvery = 256
)

// Options controls the shape of a run.
type Options struct {
	Workers    int   // Concurrent goroutines
	Iterations int   // Allocate/Box rounds per worker
	Hold       int   // Buffers each worker holds before freeing the oldest
	BoxRange   int64 // Boxed values are drawn from [0, BoxRange)
	Seed       int64 // Base seed; worker i uses Seed+i
}

// DefaultOptions returns a short run suitable for CI.
func DefaultOptions() Options {
	return Options{
		Workers:    8,
		Iterations: 10000,
		Hold:       2,
		BoxRange:   1 << 12,
		Seed:       1,
	}
}

// Report summarizes a run.
type Report struct {
	Workers       int            `json:"workers"`
	Iterations    int            `json:"iterations"`
	Hold          int            `json:"hold"`
	Elapsed       time.Duration  `json:"elapsed_ns"`
	BufferOps     int64          `json:"buffer_ops"`
	BoxOps        int64          `json:"box_ops"`
	DoubleIssues  int64          `json:"double_issues"`
	BoxMismatches int64          `json:"box_mismatches"`
	BytesReleased uint64         `json:"bytes_released"`
	BufferStats   api.CacheStats `json:"buffer_stats"`
	BoxStats      api.CacheStats `json:"box_stats"`
	Canceled      bool           `json:"canceled"`
}

// Err returns a non-nil error if the run observed any violation.
func (r Report) Err() error {
	switch {
	case r.DoubleIssues > 0:
		return fmt.Errorf("%w: %d occurrences", api.ErrDoubleIssue, r.DoubleIssues)
	case r.BoxMismatches > 0:
		return fmt.Errorf("%w: %d occurrences", api.ErrValueMismatch, r.BoxMismatches)
	}
	return nil
}

type held struct {
	buf *[]byte
	seq uint64
}

type runner struct {
	buffers *pool.BufferCache
	boxes   *pool.ScalarBoxCache[int64]
	opts    Options
	logger  log.Interface

	owners        sync.Map // *byte -> worker id
	bufferOps     atomic.Int64
	boxOps        atomic.Int64
	doubleIssues  atomic.Int64
	boxMismatches atomic.Int64
	released      atomic.Uint64
}

// Run hammers both caches from opts.Workers goroutines until every worker
// finishes or ctx is canceled. Violations are reported, not returned; call
// Report.Err to turn them into an error.
func Run(ctx context.Context, buffers *pool.BufferCache, boxes *pool.ScalarBoxCache[int64], opts Options, logger log.Interface) (Report, error) {
	if buffers == nil || boxes == nil {
		return Report{}, fmt.Errorf("%w: nil cache", api.ErrInvalidArgument)
	}
	if opts.Workers <= 0 || opts.Iterations <= 0 || opts.Hold < 0 || opts.BoxRange <= 0 {
		return Report{}, fmt.Errorf("%w: options %+v", api.ErrInvalidArgument, opts)
	}
	if logger == nil {
		logger = log.Log
	}

	r := &runner{buffers: buffers, boxes: boxes, opts: opts, logger: logger}
	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.work(ctx, id)
		}(w)
	}
	wg.Wait()

	rep := Report{
		Workers:       opts.Workers,
		Iterations:    opts.Iterations,
		Hold:          opts.Hold,
		Elapsed:       time.Since(start),
		BufferOps:     r.bufferOps.Load(),
		BoxOps:        r.boxOps.Load(),
		DoubleIssues:  r.doubleIssues.Load(),
		BoxMismatches: r.boxMismatches.Load(),
		BytesReleased: r.released.Load(),
		BufferStats:   buffers.Stats(),
		BoxStats:      boxes.Stats(),
		Canceled:      ctx.Err() != nil,
	}
	logger.WithFields(log.Fields{
		"elapsed":  rep.Elapsed,
		"buffers":  rep.BufferOps,
		"boxes":    rep.BoxOps,
		"released": humanize.IBytes(rep.BytesReleased),
	}).Info("stress run finished")
	return rep, nil
}

func (r *runner) work(ctx context.Context, id int) {
	rnd := rand.New(rand.NewSource(r.opts.Seed + int64(id)))
	q := queue.New()
	ctxLog := r.logger.WithField("worker", id)

	for i := 0; i < r.opts.Iterations; i++ {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			ctxLog.WithField("iteration", i).Debug("canceled")
			break
		}

		q.Add(r.acquire(id, uint64(i)))
		for q.Length() > r.opts.Hold {
			r.release(id, q.Remove().(held))
		}

		v := rnd.Int63n(r.opts.BoxRange)
		if got := r.boxes.Get(&v); got == nil || *got != v {
			r.boxMismatches.Add(1)
			ctxLog.WithField("value", v).Error("box mismatch")
		}
		r.boxOps.Add(1)
	}
	for q.Length() > 0 {
		r.release(id, q.Remove().(held))
	}
	ctxLog.Debug("worker done")
}

func (r *runner) acquire(id int, seq uint64) held {
	buf := r.buffers.Allocate()
	r.bufferOps.Add(1)
	if prev, dup := r.owners.LoadOrStore(key(buf), id); dup {
		r.doubleIssues.Add(1)
		r.logger.WithFields(log.Fields{"worker": id, "holder": prev}).Error("buffer issued twice")
	}
	if len(*buf) >= tagSize {
		binary.LittleEndian.PutUint64((*buf)[0:], uint64(id))
		binary.LittleEndian.PutUint64((*buf)[8:], seq)
	}
	return held{buf: buf, seq: seq}
}

func (r *runner) release(id int, h held) {
	b := *h.buf
	if len(b) >= tagSize &&
		(binary.LittleEndian.Uint64(b[0:]) != uint64(id) || binary.LittleEndian.Uint64(b[8:]) != h.seq) {
		r.doubleIssues.Add(1)
		r.logger.WithFields(log.Fields{"worker": id, "seq": h.seq}).Error("buffer tag clobbered")
	}
	r.owners.Delete(key(h.buf))
	r.released.Add(uint64(len(b)))
	r.buffers.Free(h.buf)
}

func key(buf *[]byte) *byte {
	return unsafe.SliceData(*buf)
}
