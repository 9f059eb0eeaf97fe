package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for booking flows.
type SchedulingMetrics struct {
	bookingsTotal       *prometheus.CounterVec
	conflictChecksTotal *prometheus.CounterVec
	voiceWebhooksTotal  *prometheus.CounterVec
	daySummaryLatency   prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "praxisflow",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Total appointments booked",
		}, []string{"source", "conflicted"}),
		conflictChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "praxisflow",
			Subsystem: "scheduling",
			Name:      "conflict_checks_total",
			Help:      "Total conflict checks run",
		}, []string{"result"}),
		voiceWebhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "praxisflow",
			Subsystem: "voice",
			Name:      "webhooks_total",
			Help:      "Total voice agent webhook events",
		}, []string{"provider", "status"}),
		daySummaryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "praxisflow",
			Subsystem: "scheduling",
			Name:      "day_summary_latency_seconds",
			Help:      "Latency of day conflict summaries",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.conflictChecksTotal, m.voiceWebhooksTotal, m.daySummaryLatency)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(source string, conflicted bool) {
	if m == nil {
		return
	}
	label := "false"
	if conflicted {
		label = "true"
	}
	m.bookingsTotal.WithLabelValues(source, label).Inc()
}

func (m *SchedulingMetrics) ObserveConflictCheck(hasConflict bool) {
	if m == nil {
		return
	}
	result := "clear"
	if hasConflict {
		result = "conflict"
	}
	m.conflictChecksTotal.WithLabelValues(result).Inc()
}

func (m *SchedulingMetrics) ObserveVoiceWebhook(provider, status string) {
	if m == nil {
		return
	}
	m.voiceWebhooksTotal.WithLabelValues(provider, status).Inc()
}

func (m *SchedulingMetrics) ObserveDaySummaryLatency(seconds float64) {
	if m == nil {
		return
	}
	m.daySummaryLatency.Observe(seconds)
}
