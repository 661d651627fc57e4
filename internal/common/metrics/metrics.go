// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Recommendation requests by transport and outcome",
		},
		[]string{"transport", "outcome"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end recommendation pipeline duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 1.5, 2.5, 5, 10},
		},
		[]string{"path"},
	)

	RecommendationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_fallback_total",
			Help: "Requests answered from the popularity fallback",
		},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidates",
			Help:    "Number of candidates retrieved per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	CompletionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_completion_calls_total",
			Help: "Text completion calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genai_completion_duration_seconds",
			Help:    "Text completion latency by operation",
			Buckets: []float64{.1, .25, .5, 1, 2, 3, 5},
		},
		[]string{"operation"},
	)

	CompletionBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "genai_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"breaker"},
	)

	VenueStoreQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_store_queries_total",
			Help: "Venue store queries by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	VenueStoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "venue_store_query_duration_seconds",
			Help: "Venue store query latency by backend",
		},
		[]string{"backend"},
	)
)

// BreakerStateValue maps a breaker state name to the gauge encoding.
func BreakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// ObserveBreaker records a breaker transition. Its signature matches
// genai.StateObserver.
func ObserveBreaker(name, from, to string) {
	CompletionBreakerState.WithLabelValues(name).Set(BreakerStateValue(to))
}
