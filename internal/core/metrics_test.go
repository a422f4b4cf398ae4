//nolint:testpackage // Tests internal counters
package core

import (
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountOperations(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := New(Config{Value: 1, Precision: 2, UseCache: true})
	g.Expect(err).NotTo(HaveOccurred())

	_, _ = calc.Add(1, 2)
	_, _ = calc.Add(1, 2)
	_, _ = calc.Add(2, 1)
	_, _ = calc.Format()
	_, _ = calc.FormatInto(make([]byte, 1))

	g.Expect(testutil.ToFloat64(calc.metrics.adds)).To(Equal(3.0))
	g.Expect(testutil.ToFloat64(calc.metrics.cacheHits)).To(Equal(1.0))
	g.Expect(testutil.ToFloat64(calc.metrics.cacheMisses)).To(Equal(2.0))
	g.Expect(testutil.ToFloat64(calc.metrics.formats)).To(Equal(2.0))
	g.Expect(testutil.ToFloat64(calc.metrics.shortBufs)).To(Equal(1.0))
}

func TestMetrics_NoMissesWithoutCache(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	calc, err := New(DefaultConfig())
	g.Expect(err).NotTo(HaveOccurred())

	_, _ = calc.Add(1, 2)

	g.Expect(testutil.ToFloat64(calc.metrics.cacheMisses)).To(BeZero())
	g.Expect(testutil.ToFloat64(calc.metrics.cacheHits)).To(BeZero())
}

func TestMetrics_ExposedOnRegistry(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	reg := prometheus.NewPedanticRegistry()

	calc, err := New(DefaultConfig(), WithRegisterer(reg))
	g.Expect(err).NotTo(HaveOccurred())

	_, _ = calc.Add(1, 2)

	expected := `
# HELP calc_add_total Number of Add calls.
# TYPE calc_add_total counter
calc_add_total 1
`
	g.Expect(testutil.GatherAndCompare(reg, strings.NewReader(expected), "calc_add_total")).To(Succeed())

	g.Expect(calc.Close()).To(Succeed())

	count, err := testutil.GatherAndCount(reg)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(count).To(BeZero(), "Close should unregister every collector")
}

func TestMetrics_DuplicateRegistrationFails(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	reg := prometheus.NewRegistry()

	first, err := New(DefaultConfig(), WithRegisterer(reg))
	g.Expect(err).NotTo(HaveOccurred())

	second, err := New(DefaultConfig(), WithRegisterer(reg))
	g.Expect(second).To(BeNil())

	var already prometheus.AlreadyRegisteredError
	g.Expect(errors.As(err, &already)).To(BeTrue())

	// the failed New must not leave the first calculator's counters half-unregistered
	_, _ = first.Add(1, 1)

	count, err := testutil.GatherAndCount(reg, "calc_add_total")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(count).To(Equal(1))
}

func TestMetrics_SharedRegistryWithLabels(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	reg := prometheus.NewRegistry()

	left, err := New(DefaultConfig(), WithRegisterer(prometheus.WrapRegistererWith(prometheus.Labels{"calculator": "left"}, reg)))
	g.Expect(err).NotTo(HaveOccurred())

	right, err := New(DefaultConfig(), WithRegisterer(prometheus.WrapRegistererWith(prometheus.Labels{"calculator": "right"}, reg)))
	g.Expect(err).NotTo(HaveOccurred())

	_, _ = left.Add(1, 1)
	_, _ = right.Add(1, 1)
	_, _ = right.Add(2, 2)

	expected := `
# HELP calc_add_total Number of Add calls.
# TYPE calc_add_total counter
calc_add_total{calculator="left"} 1
calc_add_total{calculator="right"} 2
`
	g.Expect(testutil.GatherAndCompare(reg, strings.NewReader(expected), "calc_add_total")).To(Succeed())

	g.Expect(left.Close()).To(Succeed())
	g.Expect(right.Close()).To(Succeed())
}
