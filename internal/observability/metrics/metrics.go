// Package metrics exposes Prometheus instrumentation for the triage
// and scheduling pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics counts triage outcomes, fallback tiers, and booking
// conflicts. All methods are nil-safe so wiring stays optional.
type PipelineMetrics struct {
	planActions      *prometheus.CounterVec
	slotSearchTiers  *prometheus.CounterVec
	bookingOutcomes  *prometheus.CounterVec
	orchestrateSecs  prometheus.Histogram
	emergencySlotHit *prometheus.CounterVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		planActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartdental",
			Subsystem: "orchestration",
			Name:      "plan_actions_total",
			Help:      "Orchestration plans by suggested action",
		}, []string{"action"}),
		slotSearchTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartdental",
			Subsystem: "schedule",
			Name:      "slot_search_tier_total",
			Help:      "Tiered fallback searches by resulting tier",
		}, []string{"tier"}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartdental",
			Subsystem: "schedule",
			Name:      "booking_outcomes_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		orchestrateSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "smartdental",
			Subsystem: "orchestration",
			Name:      "turn_duration_seconds",
			Help:      "Latency of one orchestration turn",
			Buckets:   prometheus.DefBuckets,
		}),
		emergencySlotHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartdental",
			Subsystem: "schedule",
			Name:      "emergency_slot_searches_total",
			Help:      "Emergency slot searches by result",
		}, []string{"found"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.planActions, m.slotSearchTiers, m.bookingOutcomes, m.orchestrateSecs, m.emergencySlotHit)
	return m
}

func (m *PipelineMetrics) ObservePlanAction(action string) {
	if m == nil {
		return
	}
	m.planActions.WithLabelValues(action).Inc()
}

func (m *PipelineMetrics) ObserveSlotSearchTier(tier string) {
	if m == nil {
		return
	}
	m.slotSearchTiers.WithLabelValues(tier).Inc()
}

func (m *PipelineMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveTurnDuration(seconds float64) {
	if m == nil {
		return
	}
	m.orchestrateSecs.Observe(seconds)
}

func (m *PipelineMetrics) ObserveEmergencySearch(found bool) {
	if m == nil {
		return
	}
	label := "false"
	if found {
		label = "true"
	}
	m.emergencySlotHit.WithLabelValues(label).Inc()
}
