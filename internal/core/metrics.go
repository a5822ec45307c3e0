package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"navisolcore/pkg/domain"
)

// Metrics counts service-level operations for Prometheus scraping.
type Metrics struct {
	transitions *prometheus.CounterVec
	violations  prometheus.Counter
	snapshots   prometheus.Counter
}

// NewMetrics registers the operation counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "navisol",
			Name:      "project_transitions_total",
			Help:      "Lifecycle transitions applied, labelled by target status.",
		}, []string{"to_status"}),
		violations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "navisol",
			Name:      "rule_violations_total",
			Help:      "Blocking rule violations that aborted a transaction.",
		}),
		snapshots: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "navisol",
			Name:      "configuration_snapshots_total",
			Help:      "Configuration snapshots taken.",
		}),
	}
}

// ObserveTransition counts one applied lifecycle transition.
func (m *Metrics) ObserveTransition(to domain.ProjectStatus) {
	m.transitions.WithLabelValues(string(to)).Inc()
}

// ObserveViolation counts one blocked transaction.
func (m *Metrics) ObserveViolation() {
	m.violations.Inc()
}

// ObserveSnapshot counts one configuration snapshot.
func (m *Metrics) ObserveSnapshot() {
	m.snapshots.Inc()
}

// ObserveSnapshots counts several snapshots taken in one transaction.
func (m *Metrics) ObserveSnapshots(n int) {
	m.snapshots.Add(float64(n))
}
