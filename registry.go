package calc

import "github.com/toejough/calc/internal/core"

// Handle is an opaque reference to a registered Calculator, for callers that mirror
// the C calc_* surface.
type Handle = core.Handle

// AddHandle adds a and b on the calculator behind h.
func AddHandle(h Handle, a, b float64) (float64, error) {
	return core.AddHandle(h, a, b)
}

// Create builds a Calculator and registers it under a fresh Handle.
// Every Handle must be released with Destroy.
func Create(cfg Config, opts ...Option) (Handle, error) {
	return core.Create(cfg, opts...)
}

// Destroy closes the calculator behind h. A second Destroy returns ErrInvalidHandle.
func Destroy(h Handle) error {
	return core.Destroy(h)
}

// FormatHandle renders the current value behind h into buf and returns the length the full
// rendering needs, or -1 if h is not live.
func FormatHandle(h Handle, buf []byte) int32 {
	return core.FormatHandle(h, buf)
}

// Lookup returns the calculator registered under h.
func Lookup(h Handle) (*Calculator, error) {
	return core.Lookup(h)
}
