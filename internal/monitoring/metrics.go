package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ChecksTotal   *prometheus.CounterVec
	FailuresTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sniper_checks_total",
			Help: "The total number of target checks processed",
		}, []string{"result"}), // 'success', 'failed', 'skipped'
		FailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sniper_check_failures_total",
			Help: "The total number of failed checks by reason",
		}, []string{"reason"}), // e.g. 'navigation_failed', 'price_not_found', 'db_update_failed'
	}
}

func (m *Metrics) IncChecks(result string) {
	m.ChecksTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncFailures(reason string) {
	m.FailuresTotal.WithLabelValues(reason).Inc()
}
