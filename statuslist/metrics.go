package statuslist

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus collectors for status list occupancy
// (spec §5 DOMAIN STACK: "status list size").
type Metrics struct {
	listLength prometheus.GaugeVec
	listUsed   prometheus.GaugeVec
}

// NewMetrics registers the manager's collectors with reg. If reg is nil,
// the collectors are created unregistered, which is safe for tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		listLength: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "trustcore",
			Subsystem: "statuslist",
			Name:      "length",
			Help:      "Configured length, in bits, of a status list.",
		}, []string{"list_id"}),
		listUsed: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "trustcore",
			Subsystem: "statuslist",
			Name:      "used",
			Help:      "Number of indices allocated out of a status list.",
		}, []string{"list_id"}),
	}
	if reg != nil {
		reg.MustRegister(m.listLength, m.listUsed)
	}
	return m
}

func (m *Metrics) observeOccupancy(listID string, length, used int) {
	if m == nil {
		return
	}
	m.listLength.WithLabelValues(listID).Set(float64(length))
	m.listUsed.WithLabelValues(listID).Set(float64(used))
}
