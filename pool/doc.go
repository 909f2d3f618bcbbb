// Package pool
// Author: momentics <momentics@gmail.com>
//
// Allocation-avoidance caches for hot call paths.
// ScalarBoxCache reuses heap handles for equal small values; BufferCache
// recycles one scratch buffer at a time. Both are lock-free, never block and
// never affect results on a miss.
// See boxcache.go and buffercache.go for implementation details.
package pool
