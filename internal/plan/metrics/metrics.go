package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks plan authoring and purchases.
type Metrics struct {
	PlansPublished   prometheus.Counter
	PlansRevised     prometheus.Counter
	Purchases        *prometheus.CounterVec
	PurchaseRejected *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PlansPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_plans_published_total",
			Help: "Total number of plans published",
		}),
		PlansRevised: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_plan_revisions_total",
			Help: "Total number of plan revisions",
		}),
		Purchases: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascend_plan_purchases_total",
			Help: "Plan purchases, by plan name",
		}, []string{"plan"}),
		PurchaseRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascend_plan_purchase_rejections_total",
			Help: "Plan purchases rejected, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncPublished() {
	if m != nil {
		m.PlansPublished.Inc()
	}
}

func (m *Metrics) IncRevised() {
	if m != nil {
		m.PlansRevised.Inc()
	}
}

func (m *Metrics) IncPurchase(plan string) {
	if m != nil {
		m.Purchases.WithLabelValues(plan).Inc()
	}
}

func (m *Metrics) IncPurchaseRejected(reason string) {
	if m != nil {
		m.PurchaseRejected.WithLabelValues(reason).Inc()
	}
}
