// Package calc is a small stateful calculator: build one from a Config, add numbers, and render
// the current value at the configured precision.
//
// This is the public API entry point. Implementation lives in internal/core.
package calc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/toejough/calc/internal/core"
)

// Exported constants.
const (
	DefaultCacheSize = core.DefaultCacheSize
	DefaultPrecision = core.DefaultPrecision
	MaxPrecision     = core.MaxPrecision
)

// Errors re-exported from internal/core.
var (
	ErrClosed              = core.ErrClosed
	ErrIncompatibleVersion = core.ErrIncompatibleVersion
	ErrInvalidCacheSize    = core.ErrInvalidCacheSize
	ErrInvalidConfig       = core.ErrInvalidConfig
	ErrInvalidHandle       = core.ErrInvalidHandle
	ErrInvalidPrecision    = core.ErrInvalidPrecision
	ErrInvalidVersion      = core.ErrInvalidVersion
)

// Calculator adds numbers and renders its current value.
type Calculator = core.Calculator

// Config is the value bundle a Calculator is built from.
type Config = core.Config

// Option customizes a Calculator beyond its Config.
type Option = core.Option

// ShortBufferError is returned by FormatInto when the buffer is too small.
type ShortBufferError = core.ShortBufferError

// DefaultConfig returns the baseline config.
func DefaultConfig() Config {
	return core.DefaultConfig()
}

// New builds a Calculator from cfg.
func New(cfg Config, opts ...Option) (*Calculator, error) {
	return core.New(cfg, opts...)
}

// RequireVersion returns an error unless Version() is at least minimum.
func RequireVersion(minimum string) error {
	return core.RequireVersion(minimum)
}

// Version returns the library version.
func Version() string {
	return core.Version()
}

// WithCacheSize bounds the number of memoized input pairs.
func WithCacheSize(size int) Option {
	return core.WithCacheSize(size)
}

// WithRegisterer exposes the calculator's counters on reg.
// Only one open calculator can use a given reg; wrap it with prometheus.WrapRegistererWith
// to expose several.
func WithRegisterer(reg prometheus.Registerer) Option {
	return core.WithRegisterer(reg)
}
