package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for tier evaluation.
type Metrics struct {
	Evaluations      prometheus.Counter
	Promotions       *prometheus.CounterVec
	RefreshFailures  prometheus.Counter
	SweepDuration    prometheus.Histogram
	SweepEvaluations prometheus.Counter
}

// New registers the rank metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Evaluations: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_tier_evaluations_total",
			Help: "Total number of tier evaluations",
		}),
		Promotions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascend_tier_promotions_total",
			Help: "Tier promotions, by tier reached",
		}, []string{"tier"}),
		RefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_tier_refresh_failures_total",
			Help: "Background tier refreshes that failed",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ascend_tier_sweep_duration_seconds",
			Help:    "Duration of full tier sweeps",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		SweepEvaluations: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_tier_sweep_participants_total",
			Help: "Participants evaluated by sweeps",
		}),
	}
}

func (m *Metrics) IncEvaluation() {
	if m == nil {
		return
	}
	m.Evaluations.Inc()
}

func (m *Metrics) IncPromotion(tier string) {
	if m == nil {
		return
	}
	m.Promotions.WithLabelValues(tier).Inc()
}

func (m *Metrics) IncRefreshFailure() {
	if m == nil {
		return
	}
	m.RefreshFailures.Inc()
}

// ObserveSweep records a finished sweep. Call with time.Now() at its start.
func (m *Metrics) ObserveSweep(start time.Time, evaluated int) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(time.Since(start).Seconds())
	m.SweepEvaluations.Add(float64(evaluated))
}
