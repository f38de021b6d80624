package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the payout workflow.
type Metrics struct {
	Requests          *prometheus.CounterVec
	TransferDuration  *prometheus.HistogramVec
	ReconciliationGap prometheus.Counter
}

// New registers the payout metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascend_payout_requests_total",
			Help: "Payout request transitions, by resulting status",
		}, []string{"status"}),
		TransferDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ascend_payout_transfer_duration_seconds",
			Help:    "Duration of transfer gateway calls, by outcome",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		ReconciliationGap: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_payout_reconciliation_gaps_total",
			Help: "Completed payouts that settled less than requested",
		}),
	}
}

func (m *Metrics) IncStatus(status string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(status).Inc()
}

// ObserveTransfer records a gateway call. Call with time.Now() at its start.
func (m *Metrics) ObserveTransfer(start time.Time, outcome string) {
	if m == nil {
		return
	}
	m.TransferDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncReconciliationGap() {
	if m == nil {
		return
	}
	m.ReconciliationGap.Inc()
}
