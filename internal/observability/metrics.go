package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce             sync.Once
	verdictsTotal            *prometheus.CounterVec
	runsTotal                *prometheus.CounterVec
	remoteSubmissionsTotal   *prometheus.CounterVec
	remoteSubmissionDuration *prometheus.HistogramVec
	sinkErrorsTotal          *prometheus.CounterVec
	httpRequestsTotal        *prometheus.CounterVec
	httpLatencySeconds       *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used by the grader.
func RegisterMetrics() {
	registerOnce.Do(func() {
		verdictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grader",
			Name:      "rule_verdicts_total",
			Help:      "Rule verdicts produced, by rule and status.",
		}, []string{"rule", "status"})

		runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grader",
			Name:      "runs_total",
			Help:      "Grading runs, by outcome.",
		}, []string{"outcome"})

		remoteSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grader",
			Subsystem: "remote",
			Name:      "submissions_total",
			Help:      "Verdict submissions sent to the scoring endpoint, by outcome.",
		}, []string{"outcome"})

		remoteSubmissionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grader",
			Subsystem: "remote",
			Name:      "submission_duration_seconds",
			Help:      "Latency of verdict submissions to the scoring endpoint.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"})

		sinkErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grader",
			Name:      "sink_errors_total",
			Help:      "Reporting failures, by sink.",
		}, []string{"sink"})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grader",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of grading API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grader",
			Subsystem: "http",
			Name:      "latency_seconds",
			Help:      "Latency distribution for grading API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(
			verdictsTotal,
			runsTotal,
			remoteSubmissionsTotal,
			remoteSubmissionDuration,
			sinkErrorsTotal,
			httpRequestsTotal,
			httpLatencySeconds,
		)
	})
}

// Verdicts exposes the counter for rule verdicts.
func Verdicts() *prometheus.CounterVec {
	RegisterMetrics()
	return verdictsTotal
}

// Runs exposes the counter for grading runs.
func Runs() *prometheus.CounterVec {
	RegisterMetrics()
	return runsTotal
}

// RemoteSubmissions exposes the counter for remote verdict submissions.
func RemoteSubmissions() *prometheus.CounterVec {
	RegisterMetrics()
	return remoteSubmissionsTotal
}

// RemoteSubmissionDuration exposes the latency histogram for remote submissions.
func RemoteSubmissionDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return remoteSubmissionDuration
}

// SinkErrors exposes the counter for reporter failures.
func SinkErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return sinkErrorsTotal
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// MetricsHandler serves the default registry on the grading API.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
