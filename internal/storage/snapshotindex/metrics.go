package snapshotindex

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultOK    = "ok"
	resultError = "error"
)

// Metrics holds the Prometheus collectors of a Store. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	locateTotal    *prometheus.CounterVec
	registerTotal  *prometheus.CounterVec
	locateDuration prometheus.Histogram
}

// NewMetrics creates the index collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		locateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sqld",
			Subsystem: "snapshot_index",
			Name:      "locate_total",
			Help:      "Snapshot lookups by result (hit, miss, error)",
		}, []string{"result"}),

		registerTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sqld",
			Subsystem: "snapshot_index",
			Name:      "register_total",
			Help:      "Snapshot range registrations by result (ok, error)",
		}, []string{"result"}),

		locateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sqld",
			Subsystem: "snapshot_index",
			Name:      "locate_duration_seconds",
			Help:      "Latency of snapshot lookups",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8), // 50µs .. ~800ms
		}),
	}

	for _, c := range []prometheus.Collector{m.locateTotal, m.registerTotal, m.locateDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeLocate(found bool, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	result := resultMiss
	switch {
	case err != nil:
		result = resultError
	case found:
		result = resultHit
	}
	m.locateTotal.WithLabelValues(result).Inc()
	m.locateDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeRegister(err error) {
	if m == nil {
		return
	}

	result := resultOK
	if err != nil {
		result = resultError
	}
	m.registerTotal.WithLabelValues(result).Inc()
}
