package core

import (
	"errors"
	"fmt"
	"sync"
)

// Exported variables.
var (
	ErrClosed = errors.New("calculator is closed")
)

// Calculator adds numbers and renders its current value.
// It is safe for concurrent use. After Close every operation except Config returns ErrClosed.
type Calculator struct {
	cfg     Config
	metrics *metrics

	mu     sync.Mutex
	value  float64
	cache  *memo // nil unless cfg.UseCache
	closed bool
}

// New builds a Calculator from cfg.
func New(cfg Config, opts ...Option) (*Calculator, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	err = o.validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	m := newMetrics(o.registerer)

	err = m.register()
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	calc := &Calculator{
		cfg:     cfg,
		metrics: m,
		value:   cfg.Value,
	}

	if cfg.UseCache {
		calc.cache = newMemo(o.cacheSize)
	}

	return calc, nil
}

// Add returns a + b and makes it the current value.
// With caching enabled a repeated pair is answered from the cache; the result is identical either way.
func (c *Calculator) Add(a, b float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}

	c.metrics.adds.Inc()

	sum, ok := c.lookup(a, b)
	if !ok {
		sum = a + b
		c.remember(a, b, sum)
	}

	c.value = sum

	return sum, nil
}

// CacheLen returns the number of memoized input pairs.
func (c *Calculator) CacheLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache == nil {
		return 0
	}

	return c.cache.len()
}

// Close releases the cache and unregisters metrics. Closing twice returns ErrClosed.
func (c *Calculator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.closed = true
	c.cache = nil
	c.metrics.unregister()

	return nil
}

// Config returns the config the calculator was built from.
func (c *Calculator) Config() Config {
	return c.cfg
}

// Format renders the current value with the configured precision.
func (c *Calculator) Format() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}

	c.metrics.formats.Inc()

	return FormatValue(c.value, c.cfg.Precision), nil
}

// FormatInto renders the current value into buf and returns the number of bytes the full
// rendering needs. Nothing is written past len(buf). If buf is too small the rendering is
// truncated and a *ShortBufferError is returned alongside the required count.
func (c *Calculator) FormatInto(buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}

	c.metrics.formats.Inc()

	text := FormatValue(c.value, c.cfg.Precision)
	copy(buf, text)

	if len(buf) < len(text) {
		c.metrics.shortBufs.Inc()

		return len(text), &ShortBufferError{Required: len(text), Capacity: len(buf)}
	}

	return len(text), nil
}

// Reset restores the current value to the configured one and empties the cache.
func (c *Calculator) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.value = c.cfg.Value

	if c.cache != nil {
		c.cache.clear()
	}

	return nil
}

// Value returns the current value.
func (c *Calculator) Value() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}

	return c.value, nil
}

func (c *Calculator) lookup(a, b float64) (float64, bool) {
	if c.cache == nil {
		return 0, false
	}

	sum, ok := c.cache.get(a, b)
	if ok {
		c.metrics.cacheHits.Inc()
	} else {
		c.metrics.cacheMisses.Inc()
	}

	return sum, ok
}

func (c *Calculator) remember(a, b, sum float64) {
	if c.cache == nil {
		return
	}

	c.cache.put(a, b, sum)
}
