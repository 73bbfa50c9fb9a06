package resolver

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors for the universal resolver's
// cache behavior (spec §5 DOMAIN STACK: "resolver cache hit/miss").
type Metrics struct {
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetrics registers the resolver's collectors with reg. If reg is nil,
// the collectors are created unregistered, which is safe for tests that
// don't care about exposition.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trustcore",
			Subsystem: "resolver",
			Name:      "cache_hits_total",
			Help:      "DID resolution cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trustcore",
			Subsystem: "resolver",
			Name:      "cache_misses_total",
			Help:      "DID resolution cache misses.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.cacheHits, m.cacheMisses)
	}
	return m
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) cacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
