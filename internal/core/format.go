package core

import (
	"fmt"
	"io"
	"math"

	"github.com/shopspring/decimal"
)

// ShortBufferError is returned by FormatInto when the buffer cannot hold the rendering.
// Only the first Capacity bytes were written.
type ShortBufferError struct {
	Required int
	Capacity int
}

func (e *ShortBufferError) Error() string {
	return fmt.Sprintf("short buffer: need %d bytes, have %d", e.Required, e.Capacity)
}

// Unwrap lets errors.Is match io.ErrShortBuffer.
func (e *ShortBufferError) Unwrap() error {
	return io.ErrShortBuffer
}

// FormatValue renders v with precision fixed decimal digits, rounding half away from zero.
// Non-finite values render as "nan", "inf" and "-inf".
func FormatValue(v float64, precision int32) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	return decimal.NewFromFloat(v).StringFixed(precision)
}
