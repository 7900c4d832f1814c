// Package observability provides Prometheus metrics, OpenTelemetry tracing
// and HTTP middleware for monitoring soiree services.
package observability

import "github.com/prometheus/client_golang/prometheus"

// BackendBuckets defines histogram buckets for generation backend latency,
// ranging from 100ms to 120s.
var BackendBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Submission outcomes used as the "outcome" label.
const (
	OutcomeSucceeded          = "succeeded"
	OutcomeMalformedResponse  = "malformed_response"
	OutcomeBackendUnavailable = "backend_unavailable"
	OutcomeCancelled          = "cancelled"
	OutcomeInvalid            = "invalid"
	OutcomeRejected           = "rejected"
)

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soiree_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soiree_request_duration_seconds",
			Help:    "Request duration",
			Buckets: BackendBuckets,
		},
		[]string{"method"},
	)

	// SubmissionsTotal counts submit attempts by outcome. Validation failures
	// and AlreadyInProgress rejections are counted too.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soiree_submissions_total",
			Help: "Invitation submissions",
		},
		[]string{"outcome"},
	)

	// BackendRequestsTotal counts calls to the generation backend.
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soiree_backend_requests_total",
			Help: "Backend requests",
		},
		[]string{"backend", "status"},
	)

	// BackendLatency records generation backend latency in seconds.
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soiree_backend_latency_seconds",
			Help:    "Backend latency",
			Buckets: BackendBuckets,
		},
		[]string{"backend"},
	)

	// MappingFailuresTotal counts backend responses rejected by the
	// artifact mapping table, by semantic field.
	MappingFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soiree_mapping_failures_total",
			Help: "Artifact mapping failures",
		},
		[]string{"field"},
	)

	// SessionsActive tracks the number of open form sessions.
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "soiree_sessions_active",
			Help: "Active form sessions",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		SubmissionsTotal,
		BackendRequestsTotal,
		BackendLatency,
		MappingFailuresTotal,
		SessionsActive,
	)
}
