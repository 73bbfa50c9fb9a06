package audit

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors for audit log append latency
// (spec §5 DOMAIN STACK: "audit append latency").
type Metrics struct {
	appendLatency prometheus.Histogram
}

// NewMetrics registers the log's collectors with reg. If reg is nil, the
// collector is created unregistered, which is safe for tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		appendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trustcore",
			Subsystem: "audit",
			Name:      "append_latency_seconds",
			Help:      "Latency of audit log append operations, including KMS signing.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.appendLatency)
	}
	return m
}

func (m *Metrics) observeAppend(seconds float64) {
	if m == nil {
		return
	}
	m.appendLatency.Observe(seconds)
}
