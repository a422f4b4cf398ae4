package calc_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/toejough/calc"
)

func ExampleCalculator_Add() {
	c, err := calc.New(calc.DefaultConfig())
	if err != nil {
		panic(err)
	}
	defer c.Close()

	sum, _ := c.Add(2, 3)
	text, _ := c.Format()

	fmt.Println(sum, text)
	// Output: 5 5.000000
}

func ExampleCalculator_FormatInto() {
	c, err := calc.New(calc.Config{Value: 123.45, Precision: 2})
	if err != nil {
		panic(err)
	}
	defer c.Close()

	buf := make([]byte, 4)

	n, err := c.FormatInto(buf)
	if errors.Is(err, io.ErrShortBuffer) {
		buf = make([]byte, n)
		n, _ = c.FormatInto(buf)
	}

	fmt.Println(string(buf[:n]))
	// Output: 123.45
}

func TestFacade_OptionsApply(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	reg := prometheus.NewRegistry()

	c, err := calc.New(calc.Config{UseCache: true}, calc.WithCacheSize(1), calc.WithRegisterer(reg))
	g.Expect(err).NotTo(HaveOccurred())

	_, _ = c.Add(1, 1)
	_, _ = c.Add(2, 2)
	g.Expect(c.CacheLen()).To(Equal(1))

	families, err := reg.Gather()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(families).NotTo(BeEmpty())

	g.Expect(c.Close()).To(Succeed())
}

func TestFacade_Version(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(calc.Version()).NotTo(BeEmpty())
	g.Expect(calc.RequireVersion(calc.Version())).To(Succeed())
	g.Expect(calc.RequireVersion("99.0.0")).To(MatchError(calc.ErrIncompatibleVersion))
}

func TestFacade_ErrorsMatchCore(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := calc.New(calc.Config{Precision: calc.MaxPrecision + 1})
	g.Expect(err).To(MatchError(calc.ErrInvalidConfig))
	g.Expect(err).To(MatchError(calc.ErrInvalidPrecision))

	_, err = calc.New(calc.Config{}, calc.WithCacheSize(-1))
	g.Expect(err).To(MatchError(calc.ErrInvalidCacheSize))
}
