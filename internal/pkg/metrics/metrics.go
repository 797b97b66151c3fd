// Package metrics exposes the Prometheus instruments of the custody service.
// All methods are safe on a nil *Metrics so tests can run without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Anchor upload attempts by result: "ok", "retry", "failed"
	AnchorAttempts *prometheus.CounterVec

	AnchorLatency prometheus.Histogram

	// Custody advances by outcome: "in_transit", "delivered"
	CustodyTransfers *prometheus.CounterVec

	// Optimistic concurrency retries by operation
	RevisionConflicts *prometheus.CounterVec

	// Reconciliation passes by result: "ok", "failed"
	Reconciliations *prometheus.CounterVec
}

// New registers every instrument on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AnchorAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_anchor_attempts_total",
			Help: "Anchor upload attempts by result",
		}, []string{"result"}),

		AnchorLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "custody_anchor_duration_seconds",
			Help:    "Duration of a full anchoring call including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		CustodyTransfers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_transfers_total",
			Help: "Committed custody advances by resulting delivery status",
		}, []string{"status"}),

		RevisionConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_revision_conflicts_total",
			Help: "Order writes rejected because of a stale revision",
		}, []string{"operation"}),

		Reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "custody_projection_reconciliations_total",
			Help: "Projection reconciliation passes by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementAnchorAttempt(result string) {
	if m != nil {
		m.AnchorAttempts.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveAnchorLatency(d time.Duration) {
	if m != nil {
		m.AnchorLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementTransfer(status string) {
	if m != nil {
		m.CustodyTransfers.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementRevisionConflict(operation string) {
	if m != nil {
		m.RevisionConflicts.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) IncrementReconciliation(result string) {
	if m != nil {
		m.Reconciliations.WithLabelValues(result).Inc()
	}
}
