package metrics

import "github.com/prometheus/client_golang/prometheus"

// PortalMetrics exposes counters/histograms for directory assembly and
// billing flows.
type PortalMetrics struct {
	stitchFailures  *prometheus.CounterVec
	transitionTotal *prometheus.CounterVec
	paymentTotal    *prometheus.CounterVec
	proofUploads    *prometheus.CounterVec
	stitchLatency   prometheus.Histogram
}

func NewPortalMetrics(reg prometheus.Registerer) *PortalMetrics {
	m := &PortalMetrics{
		stitchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "appointments",
			Name:      "directory_section_failures_total",
			Help:      "Sub-queries that failed during directory assembly, by section",
		}, []string{"section"}),
		transitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "appointments",
			Name:      "status_transitions_total",
			Help:      "Appointment status transitions applied",
		}, []string{"status"}),
		paymentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "billing",
			Name:      "payments_submitted_total",
			Help:      "Payment submissions by outcome",
		}, []string{"outcome"}),
		proofUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "billing",
			Name:      "proof_uploads_total",
			Help:      "Payment proof uploads by outcome",
		}, []string{"outcome"}),
		stitchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "appointments",
			Name:      "directory_assembly_seconds",
			Help:      "Latency of full directory assembly",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.stitchFailures, m.transitionTotal, m.paymentTotal, m.proofUploads, m.stitchLatency)
	return m
}

func (m *PortalMetrics) ObserveSectionFailure(section string) {
	if m == nil {
		return
	}
	m.stitchFailures.WithLabelValues(section).Inc()
}

func (m *PortalMetrics) ObserveTransition(status string) {
	if m == nil {
		return
	}
	m.transitionTotal.WithLabelValues(status).Inc()
}

func (m *PortalMetrics) ObservePayment(outcome string) {
	if m == nil {
		return
	}
	m.paymentTotal.WithLabelValues(outcome).Inc()
}

func (m *PortalMetrics) ObserveProofUpload(outcome string) {
	if m == nil {
		return
	}
	m.proofUploads.WithLabelValues(outcome).Inc()
}

func (m *PortalMetrics) ObserveAssemblyLatency(seconds float64) {
	if m == nil {
		return
	}
	m.stitchLatency.Observe(seconds)
}
