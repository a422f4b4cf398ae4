package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WithRegisterer exposes the calculator's counters on reg.
// The counters are unregistered again when the calculator is closed.
//
// The counter names carry no labels, so only one open calculator can use a given reg;
// New fails with a prometheus.AlreadyRegisteredError for the second one. To expose several
// calculators on one registry, give each its own labels with prometheus.WrapRegistererWith.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// metrics holds the counters of one calculator.
// A zero registerer leaves the counters unexported; they still count.
type metrics struct {
	reg prometheus.Registerer

	adds        prometheus.Counter
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	formats     prometheus.Counter
	shortBufs   prometheus.Counter
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.adds, m.cacheHits, m.cacheMisses, m.formats, m.shortBufs}
}

func (m *metrics) register() error {
	if m.reg == nil {
		return nil
	}

	for i, c := range m.collectors() {
		err := m.reg.Register(c)
		if err != nil {
			// unregister the ones already added
			for _, done := range m.collectors()[:i] {
				m.reg.Unregister(done)
			}

			return err
		}
	}

	return nil
}

func (m *metrics) unregister() {
	if m.reg == nil {
		return
	}

	for _, c := range m.collectors() {
		m.reg.Unregister(c)
	}
}

func newMetrics(reg prometheus.Registerer) *metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		})
	}

	return &metrics{
		reg:         reg,
		adds:        counter("add_total", "Number of Add calls."),
		cacheHits:   counter("cache_hits_total", "Add calls answered from the memo cache."),
		cacheMisses: counter("cache_misses_total", "Add calls computed while caching was enabled."),
		formats:     counter("format_total", "Number of Format and FormatInto calls."),
		shortBufs:   counter("format_short_buffer_total", "FormatInto calls given a buffer that was too small."),
	}
}

// unexported constants.
const (
	metricsNamespace = "calc"
)
