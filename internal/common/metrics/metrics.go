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
)

// Ranking engine vectors. The surface label is the calling surface (search, recommend, ...).
var (
	RankingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheme_ranking_requests_total",
			Help: "Total number of ranking requests by surface and outcome",
		},
		[]string{"surface", "status"},
	)

	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheme_ranking_duration_seconds",
			Help:    "End-to-end ranking latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"surface"},
	)

	RankingCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheme_ranking_candidates",
			Help:    "Number of candidate schemes scored per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"surface"},
	)

	RankingDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheme_ranking_degraded_total",
			Help: "Ranking requests answered with a degraded candidate set",
		},
		[]string{"surface", "reason"},
	)

	CandidatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheme_ranking_skipped_total",
			Help: "Candidates dropped because their eligibility rules could not be evaluated",
		},
		[]string{"surface"},
	)
)

// ObserveRanking records the outcome of one engine request.
func ObserveRanking(surface, status string, seconds float64, candidates int) {
	RankingRequests.WithLabelValues(surface, status).Inc()
	RankingDuration.WithLabelValues(surface).Observe(seconds)
	RankingCandidates.WithLabelValues(surface).Observe(float64(candidates))
}
