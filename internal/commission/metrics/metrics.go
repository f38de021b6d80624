package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for sales, the calculation engine and the ledger.
type Metrics struct {
	SalesRecorded        prometheus.Counter
	SalesVoided          prometheus.Counter
	Computations         *prometheus.CounterVec
	LinesCreated         *prometheus.CounterVec
	LineTransitions      *prometheus.CounterVec
	ConservationWarnings prometheus.Counter
	ReconciliationFlags  prometheus.Counter
	ComputeDuration      prometheus.Histogram
	CacheLookups         *prometheus.CounterVec
}

// New registers the commission metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SalesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_sales_recorded_total",
			Help: "Total number of sales recorded",
		}),
		SalesVoided: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_sales_voided_total",
			Help: "Total number of sales voided",
		}),
		Computations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascend_commission_computations_total",
			Help: "Commission computations, by outcome (computed, existing, no_plan)",
		}, []string{"outcome"}),
		LinesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascend_commission_lines_created_total",
			Help: "Commission lines written, by level",
		}, []string{"level"}),
		LineTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascend_commission_line_transitions_total",
			Help: "Commission line status changes, by target status",
		}, []string{"status"}),
		ConservationWarnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_commission_conservation_warnings_total",
			Help: "Computations whose rounded total exceeded the exact total by more than one minor unit",
		}),
		ReconciliationFlags: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_commission_reconciliation_flags_total",
			Help: "Paid lines flagged for manual reconciliation",
		}),
		ComputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ascend_commission_compute_duration_seconds",
			Help:    "Duration of commission computations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascend_ledger_cache_lookups_total",
			Help: "Aggregate cache lookups, by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncSaleRecorded() {
	if m == nil {
		return
	}
	m.SalesRecorded.Inc()
}

func (m *Metrics) IncSaleVoided() {
	if m == nil {
		return
	}
	m.SalesVoided.Inc()
}

func (m *Metrics) IncComputation(outcome string) {
	if m == nil {
		return
	}
	m.Computations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncLineCreated(level string) {
	if m == nil {
		return
	}
	m.LinesCreated.WithLabelValues(level).Inc()
}

func (m *Metrics) IncTransition(status string) {
	if m == nil {
		return
	}
	m.LineTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncConservationWarning() {
	if m == nil {
		return
	}
	m.ConservationWarnings.Inc()
}

func (m *Metrics) IncReconciliationFlag() {
	if m == nil {
		return
	}
	m.ReconciliationFlags.Inc()
}

func (m *Metrics) ObserveCompute(start time.Time) {
	if m == nil {
		return
	}
	m.ComputeDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
