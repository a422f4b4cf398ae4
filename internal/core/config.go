package core

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Exported constants.
const (
	// DefaultCacheSize is the number of input pairs a caching calculator remembers.
	DefaultCacheSize = 1024
	// DefaultPrecision is the number of decimal digits rendered by DefaultConfig.
	DefaultPrecision = 6
	// MaxPrecision is the largest precision Format accepts.
	MaxPrecision = 17
)

// Exported variables.
var (
	ErrInvalidCacheSize = errors.New("invalid cache size")
	ErrInvalidConfig    = errors.New("invalid calculator config")
	ErrInvalidPrecision = errors.New("invalid precision")
)

// Config is the value bundle a Calculator is built from.
// It is copied at construction and never changes afterwards.
type Config struct {
	Value     float64 // starting value, rendered by Format until the first Add
	Precision int32   // decimal digits rendered by Format
	UseCache  bool    // memoize Add results by input pair
}

// Validate reports whether the config can build a Calculator.
func (c Config) Validate() error {
	if c.Precision < 0 || c.Precision > MaxPrecision {
		return fmt.Errorf("%w: %d is outside [0, %d]", ErrInvalidPrecision, c.Precision, MaxPrecision)
	}

	return nil
}

// Option customizes a Calculator beyond its Config.
type Option func(*options)

// DefaultConfig returns the baseline config. Every call returns an equal value.
func DefaultConfig() Config {
	return Config{
		Value:     0,
		Precision: DefaultPrecision,
		UseCache:  false,
	}
}

// WithCacheSize bounds the number of memoized input pairs.
// It only matters when the Config enables caching.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

type options struct {
	cacheSize  int
	registerer prometheus.Registerer
}

func (o options) validate() error {
	if o.cacheSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, o.cacheSize)
	}

	return nil
}

func defaultOptions() options {
	return options{cacheSize: DefaultCacheSize}
}
