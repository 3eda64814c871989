package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Dispatcher metrics
	DispatchQueueDepth    prometheus.Gauge
	DispatchLatency       prometheus.Histogram
	DispatchRetries       *prometheus.CounterVec
	DispatchThrottled     prometheus.Counter
	DispatchFailures      *prometheus.CounterVec
	DispatchQueueTimeouts prometheus.Counter

	// Consultation pipeline metrics
	ConsultationsTotal  *prometheus.CounterVec
	FallbacksTotal      *prometheus.CounterVec
	ComplianceScore     prometheus.Histogram
	ComplianceRepairs   *prometheus.CounterVec
	UrgencyAssessments  *prometheus.CounterVec
	CacheHits           prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		DispatchQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_queue_depth",
			Help:      "Current number of requests waiting in the dispatch queue",
		}),
		DispatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent dispatching a request to the generative service",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		}),
		DispatchRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_retry_attempts_total",
			Help:      "Total number of dispatch retry attempts",
		}, []string{"reason"}),
		DispatchThrottled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_throttled_total",
			Help:      "Total number of times the dispatch loop waited on a rate budget",
		}),
		DispatchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_failures_total",
			Help:      "Total number of dispatch failures by class",
		}, []string{"class"}),
		DispatchQueueTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dispatch_queue_timeouts_total",
			Help:      "Total number of queued requests rejected after exceeding their deadline",
		}),

		ConsultationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "consultations_total",
			Help:      "Total number of consultations produced by source",
		}, []string{"source"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fallbacks_total",
			Help:      "Total number of offline fallback consultations by trigger",
		}, []string{"trigger"}),
		ComplianceScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "compliance_score",
			Help:      "Distribution of compliance scores for validated responses",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		ComplianceRepairs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "compliance_repairs_total",
			Help:      "Total number of content repairs applied to model responses",
		}, []string{"repair"}),
		UrgencyAssessments: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "urgency_assessments_total",
			Help:      "Total number of risk assessments by resulting urgency tier",
		}, []string{"urgency"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "consultation_cache_hits_total",
			Help:      "Total number of consultations served from the in-memory cache",
		}),
	}
}
