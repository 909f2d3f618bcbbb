// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values for hioload-cache.
// The caches themselves never fail; these cover configuration and the
// verification harness.

package api

import "errors"

// Common errors used across the library.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDoubleIssue     = errors.New("buffer issued to two holders")
	ErrValueMismatch   = errors.New("boxed value does not match request")
)
