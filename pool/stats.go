// File: pool/stats.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync/atomic"

	"github.com/momentics/hioload-cache/api"
)

// counters is shared by both caches. A nil *counters disables accounting.
type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	retained  atomic.Int64
	discarded atomic.Int64
}

func (s *counters) hit() {
	if s != nil {
		s.hits.Add(1)
	}
}

func (s *counters) miss() {
	if s != nil {
		s.misses.Add(1)
	}
}

func (s *counters) retain() {
	if s != nil {
		s.retained.Add(1)
	}
}

func (s *counters) discard() {
	if s != nil {
		s.discarded.Add(1)
	}
}

func (s *counters) snapshot() api.CacheStats {
	if s == nil {
		return api.CacheStats{}
	}
	return api.CacheStats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Retained:  s.retained.Load(),
		Discarded: s.discarded.Load(),
	}
}
