// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-free primitives for hioload-cache. Everything here completes in a
// bounded number of atomic operations and never parks the calling goroutine.
package concurrency
