package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the network module.
type Metrics struct {
	ParticipantsRegistered prometheus.Counter
	UplinksLinked          prometheus.Counter
	LinkRejections         *prometheus.CounterVec
	ReferralMisses         prometheus.Counter
	UplineWalkDuration     prometheus.Histogram
}

// New registers the network metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ParticipantsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_participants_registered_total",
			Help: "Total number of participants registered",
		}),
		UplinksLinked: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_uplines_linked_total",
			Help: "Total number of upline edges created",
		}),
		LinkRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ascend_upline_link_rejections_total",
			Help: "Upline link attempts rejected, by reason",
		}, []string{"reason"}),
		ReferralMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "ascend_referral_code_misses_total",
			Help: "Registrations whose referral code did not resolve",
		}),
		UplineWalkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ascend_upline_walk_duration_seconds",
			Help:    "Duration of upline chain lookups",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

func (m *Metrics) IncRegistered() {
	if m == nil {
		return
	}
	m.ParticipantsRegistered.Inc()
}

func (m *Metrics) IncLinked() {
	if m == nil {
		return
	}
	m.UplinksLinked.Inc()
}

func (m *Metrics) IncLinkRejected(reason string) {
	if m == nil {
		return
	}
	m.LinkRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncReferralMiss() {
	if m == nil {
		return
	}
	m.ReferralMisses.Inc()
}

// ObserveUplineWalk records the duration of an upline lookup.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveUplineWalk(start time.Time) {
	if m == nil {
		return
	}
	m.UplineWalkDuration.Observe(time.Since(start).Seconds())
}
