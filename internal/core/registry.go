package core

import (
	"errors"
	"fmt"
	"sync"
)

// Exported variables.
var (
	ErrInvalidHandle = errors.New("invalid calculator handle")
)

// Handle is an opaque reference to a registered Calculator.
// The zero Handle is never issued, and a destroyed Handle is never reissued.
type Handle uint64

// AddHandle adds a and b on the calculator behind h.
func AddHandle(h Handle, a, b float64) (float64, error) {
	calc, err := Lookup(h)
	if err != nil {
		return 0, err
	}

	return calc.Add(a, b)
}

// Create builds a Calculator from cfg and registers it under a fresh Handle.
func Create(cfg Config, opts ...Option) (Handle, error) {
	calc, err := New(cfg, opts...)
	if err != nil {
		return 0, err
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	lastHandle++
	registry[lastHandle] = calc

	return lastHandle, nil
}

// Destroy closes the calculator behind h and forgets h.
// Destroying an unknown or already destroyed handle returns ErrInvalidHandle.
func Destroy(h Handle) error {
	registryMu.Lock()

	calc, ok := registry[h]
	delete(registry, h)

	registryMu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}

	return calc.Close()
}

// FormatHandle renders the current value behind h into buf, C style: the return value is the
// number of bytes the full rendering needs, and -1 means h is not a live handle.
// Nothing is written past len(buf).
func FormatHandle(h Handle, buf []byte) int32 {
	calc, err := Lookup(h)
	if err != nil {
		return -1
	}

	n, err := calc.FormatInto(buf)
	if errors.Is(err, ErrClosed) {
		return -1
	}

	//nolint:gosec // renderings are a few hundred bytes at most
	return int32(n)
}

// Lookup returns the calculator registered under h.
func Lookup(h Handle) (*Calculator, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	calc, ok := registry[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}

	return calc, nil
}

// unexported variables.
var (
	//nolint:gochecknoglobals // process-wide handle table mirrors the C surface
	registry = make(map[Handle]*Calculator)
	//nolint:gochecknoglobals // Mutex for registry
	registryMu sync.Mutex
	//nolint:gochecknoglobals // guarded by registryMu
	lastHandle Handle
)
