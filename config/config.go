// File: config/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Tuning constants for the box and buffer caches. The defaults reproduce
// the reference sizing; a JSONC file may override any of them.

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/momentics/hioload-cache/api"
)

const (
	// DefaultBoxSlots is the largest prime below 2^16.
	DefaultBoxSlots = 65521
	// DefaultBufferSize is the size of freshly allocated scratch buffers.
	DefaultBufferSize = 32 * 1024
	// MaxBufferSize is the largest scratch buffer the cache will retain.
	MaxBufferSize = 64 * 1024
)

var (
	ErrConfigInvalid  = errors.New("invalid config")
	ErrConfigFileRead = errors.New("cannot read config file")
)

// Config holds cache sizing. Immutable once a cache is built from it.
type Config struct {
	BoxSlots          int  `json:"box_slots"`           // Slot count of each box cache
	BufferDefaultSize int  `json:"buffer_default_size"` // Fresh scratch buffer size, lower retain bound
	BufferMaxSize     int  `json:"buffer_max_size"`     // Upper retain bound
	TrackStats        bool `json:"track_stats"`         // Maintain hit/miss counters
}

// fileConfig mirrors Config with pointers so absent keys keep defaults.
type fileConfig struct {
	BoxSlots          *int  `json:"box_slots"`
	BufferDefaultSize *int  `json:"buffer_default_size"`
	BufferMaxSize     *int  `json:"buffer_max_size"`
	TrackStats        *bool `json:"track_stats"`
}

// Default returns the reference sizing with stats disabled.
func Default() Config {
	return Config{
		BoxSlots:          DefaultBoxSlots,
		BufferDefaultSize: DefaultBufferSize,
		BufferMaxSize:     MaxBufferSize,
	}
}

// Validate checks the bounds every cache constructor relies on.
func (c Config) Validate() error {
	if c.BoxSlots <= 0 {
		return fmt.Errorf("%w: box_slots must be positive, got %d: %w",
			ErrConfigInvalid, c.BoxSlots, api.ErrInvalidArgument)
	}
	if c.BufferDefaultSize <= 0 {
		return fmt.Errorf("%w: buffer_default_size must be positive, got %d: %w",
			ErrConfigInvalid, c.BufferDefaultSize, api.ErrInvalidArgument)
	}
	if c.BufferMaxSize < c.BufferDefaultSize {
		return fmt.Errorf("%w: buffer_max_size %d below buffer_default_size %d: %w",
			ErrConfigInvalid, c.BufferMaxSize, c.BufferDefaultSize, api.ErrInvalidArgument)
	}
	return nil
}

// Load reads a JSONC file and applies it over Default.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes JSONC config data, merges it over Default and validates.
func Parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w: invalid JSONC: %w", ErrConfigInvalid, err)
	}

	var fc fileConfig
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	cfg := merge(Default(), fc)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func merge(base Config, fc fileConfig) Config {
	if fc.BoxSlots != nil {
		base.BoxSlots = *fc.BoxSlots
	}
	if fc.BufferDefaultSize != nil {
		base.BufferDefaultSize = *fc.BufferDefaultSize
	}
	if fc.BufferMaxSize != nil {
		base.BufferMaxSize = *fc.BufferMaxSize
	}
	if fc.TrackStats != nil {
		base.TrackStats = *fc.TrackStats
	}
	return base
}
