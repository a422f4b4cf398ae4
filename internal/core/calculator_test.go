package core_test

import (
	"errors"
	"io"
	"math"
	"sync"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/toejough/calc/internal/core"
	"pgregory.net/rapid"
)

func TestAdd_Example(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := core.New(core.DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	sum, err := calc.Add(2.0, 3.0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sum).To(Equal(5.0))
}

// TestAdd_MatchesIEEE_Property proves Add is plain float64 addition, with or without the cache.
func TestAdd_MatchesIEEE_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		cfg := core.DefaultConfig()
		cfg.UseCache = rapid.Bool().Draw(rt, "useCache")

		calc, err := core.New(cfg)
		if err != nil {
			rt.Fatalf("New: %v", err)
		}

		a := rapid.Float64().Draw(rt, "a")
		b := rapid.Float64().Draw(rt, "b")

		ab, err := calc.Add(a, b)
		if err != nil {
			rt.Fatalf("Add(a, b): %v", err)
		}

		ba, err := calc.Add(b, a)
		if err != nil {
			rt.Fatalf("Add(b, a): %v", err)
		}

		want := a + b
		if math.Float64bits(ab) != math.Float64bits(want) && !(math.IsNaN(ab) && math.IsNaN(want)) {
			rt.Fatalf("Add(%v, %v) = %v, want %v", a, b, ab, want)
		}

		if ab != ba && !(math.IsNaN(ab) && math.IsNaN(ba)) {
			rt.Fatalf("Add is not commutative: %v vs %v", ab, ba)
		}
	})
}

// TestAdd_CachedRepeatIsIdentical_Property proves a cache hit returns the same bits as the first computation.
func TestAdd_CachedRepeatIsIdentical_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		calc, err := core.New(core.Config{Precision: 2, UseCache: true})
		if err != nil {
			rt.Fatalf("New: %v", err)
		}

		a := rapid.Float64().Draw(rt, "a")
		b := rapid.Float64().Draw(rt, "b")

		first, _ := calc.Add(a, b)
		second, _ := calc.Add(a, b)

		if math.Float64bits(first) != math.Float64bits(second) {
			rt.Fatalf("cached result %v differs from computed %v", second, first)
		}

		if calc.CacheLen() != 1 {
			rt.Fatalf("expected 1 cached pair, got %d", calc.CacheLen())
		}
	})
}

func TestAdd_SetsCurrentValue(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := core.New(core.Config{Value: 7.5, Precision: 1})
	g.Expect(err).NotTo(HaveOccurred())

	value, err := calc.Value()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(value).To(Equal(7.5))

	_, err = calc.Add(1, 2)
	g.Expect(err).NotTo(HaveOccurred())

	value, err = calc.Value()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(value).To(Equal(3.0))
}

func TestAdd_Concurrent(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := core.New(core.Config{Precision: 0, UseCache: true})
	g.Expect(err).NotTo(HaveOccurred())

	const workers = 50

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := range workers {
		go func(n int) {
			defer wg.Done()

			sum, addErr := calc.Add(float64(n), 1)
			g.Expect(addErr).NotTo(HaveOccurred())
			g.Expect(sum).To(Equal(float64(n + 1)))
		}(i)
	}

	wg.Wait()
	g.Expect(calc.CacheLen()).To(Equal(workers))
}

func TestCacheLen_DisabledCacheIsEmpty(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := core.New(core.DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	_, _ = calc.Add(1, 1)
	g.Expect(calc.CacheLen()).To(BeZero())
}

func TestCacheSize_BoundsCache(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := core.New(core.Config{UseCache: true}, core.WithCacheSize(3))
	g.Expect(err).NotTo(HaveOccurred())

	for i := range 10 {
		_, _ = calc.Add(float64(i), 0)
	}

	g.Expect(calc.CacheLen()).To(Equal(3))
}

func TestClose_Twice(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := core.New(core.DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(calc.Close()).To(Succeed())
	g.Expect(calc.Close()).To(MatchError(core.ErrClosed))
}

func TestClosed_OperationsFail(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg := core.Config{Value: 1, Precision: 3, UseCache: true}

	calc, err := core.New(cfg)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(calc.Close()).To(Succeed())

	_, err = calc.Add(1, 2)
	g.Expect(err).To(MatchError(core.ErrClosed))

	_, err = calc.Value()
	g.Expect(err).To(MatchError(core.ErrClosed))

	_, err = calc.Format()
	g.Expect(err).To(MatchError(core.ErrClosed))

	_, err = calc.FormatInto(make([]byte, 16))
	g.Expect(err).To(MatchError(core.ErrClosed))

	g.Expect(calc.Reset()).To(MatchError(core.ErrClosed))
	g.Expect(calc.CacheLen()).To(BeZero())
	g.Expect(calc.Config()).To(Equal(cfg))
}

func TestDefaultConfig_Deterministic(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(core.DefaultConfig()).To(Equal(core.DefaultConfig()))
	g.Expect(core.DefaultConfig().Validate()).To(Succeed())
}

func TestNew_InvalidCacheSize(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := core.New(core.Config{UseCache: true}, core.WithCacheSize(0))
	g.Expect(calc).To(BeNil())
	g.Expect(err).To(MatchError(core.ErrInvalidConfig))
	g.Expect(err).To(MatchError(core.ErrInvalidCacheSize))
}

func TestNew_InvalidPrecision(t *testing.T) {
	t.Parallel()

	for _, precision := range []int32{-1, core.MaxPrecision + 1, math.MaxInt32, math.MinInt32} {
		g := NewWithT(t)

		calc, err := core.New(core.Config{Precision: precision})
		g.Expect(calc).To(BeNil())
		g.Expect(err).To(MatchError(core.ErrInvalidConfig))
		g.Expect(errors.Is(err, core.ErrInvalidPrecision)).To(BeTrue())
	}
}

func TestReset(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := core.New(core.Config{Value: 4, Precision: 0, UseCache: true})
	g.Expect(err).NotTo(HaveOccurred())

	_, _ = calc.Add(10, 20)
	g.Expect(calc.CacheLen()).To(Equal(1))

	g.Expect(calc.Reset()).To(Succeed())
	g.Expect(calc.CacheLen()).To(BeZero())
	g.Expect(calc.Format()).To(Equal("4"))
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     float64
		precision int32
		want      string
	}{
		{name: "default precision pads zeros", value: 5, precision: core.DefaultPrecision, want: "5.000000"},
		{name: "two digits", value: 123.45, precision: 2, want: "123.45"},
		{name: "rounds half away from zero", value: 2.5, precision: 0, want: "3"},
		{name: "rounds negative half away from zero", value: -2.5, precision: 0, want: "-3"},
		{name: "rounds shortest decimal form", value: 1.005, precision: 2, want: "1.01"},
		{name: "zero", value: 0, precision: 3, want: "0.000"},
		{name: "nan", value: math.NaN(), precision: 2, want: "nan"},
		{name: "positive infinity", value: math.Inf(1), precision: 2, want: "inf"},
		{name: "negative infinity", value: math.Inf(-1), precision: 2, want: "-inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			calc, err := core.New(core.Config{Value: tt.value, Precision: tt.precision})
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(calc.Format()).To(Equal(tt.want))
		})
	}
}

func TestFormatInto_ShortBuffer(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := core.New(core.Config{Value: 123.45, Precision: 2})
	g.Expect(err).NotTo(HaveOccurred())

	backing := []byte("xxxxxxxx")

	n, err := calc.FormatInto(backing[:4])
	g.Expect(n).To(Equal(6))
	g.Expect(errors.Is(err, io.ErrShortBuffer)).To(BeTrue())

	var short *core.ShortBufferError

	g.Expect(errors.As(err, &short)).To(BeTrue())
	g.Expect(short.Required).To(Equal(6))
	g.Expect(short.Capacity).To(Equal(4))
	g.Expect(string(backing)).To(Equal("123.xxxx"))
}

func TestFormatInto_ZeroCapacity(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := core.New(core.Config{Value: 1, Precision: 1})
	g.Expect(err).NotTo(HaveOccurred())

	n, err := calc.FormatInto(nil)
	g.Expect(n).To(Equal(3))
	g.Expect(err).To(MatchError(io.ErrShortBuffer))
}

// TestFormatInto_NeverOverruns_Property proves FormatInto stays inside len(buf) for any capacity.
func TestFormatInto_NeverOverruns_Property(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		value := rapid.Float64Range(-1e9, 1e9).Draw(rt, "value")
		precision := rapid.Int32Range(0, core.MaxPrecision).Draw(rt, "precision")
		capacity := rapid.IntRange(0, 48).Draw(rt, "capacity")

		calc, err := core.New(core.Config{Value: value, Precision: precision})
		if err != nil {
			rt.Fatalf("New: %v", err)
		}

		want, _ := calc.Format()

		const sentinel = '#'

		backing := make([]byte, capacity+8)
		for i := range backing {
			backing[i] = sentinel
		}

		n, err := calc.FormatInto(backing[:capacity])
		if n != len(want) {
			rt.Fatalf("FormatInto returned %d, want %d", n, len(want))
		}

		if (err != nil) != (capacity < len(want)) {
			rt.Fatalf("unexpected error state %v for capacity %d and length %d", err, capacity, len(want))
		}

		for i := capacity; i < len(backing); i++ {
			if backing[i] != sentinel {
				rt.Fatalf("byte %d past capacity %d was overwritten", i, capacity)
			}
		}

		written := min(capacity, len(want))
		if string(backing[:written]) != want[:written] {
			rt.Fatalf("wrote %q, want prefix of %q", backing[:written], want)
		}
	})
}
