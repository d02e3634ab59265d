package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidquest_http_requests_total",
			Help: "Total number of HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kidquest_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path"},
	)
)

// Progression Metrics
var (
	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidquest_tasks_completed_total",
			Help: "Total number of accepted task completions by task id",
		},
		[]string{"task_id"},
	)

	CompletionRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidquest_completion_rejections_total",
			Help: "Total number of rejected task completions by reason",
		},
		[]string{"reason"},
	)

	LevelUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kidquest_level_ups_total",
			Help: "Total number of level ups",
		},
	)

	AchievementsGranted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidquest_achievements_granted_total",
			Help: "Total number of achievements granted by achievement id",
		},
		[]string{"achievement_id"},
	)

	AchievementCheckFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kidquest_achievement_check_failures_total",
			Help: "Total number of achievement checks that failed after the reward committed",
		},
	)

	GrantConflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kidquest_grant_conflict_retries_total",
			Help: "Total number of store transaction conflicts retried during profile writes",
		},
	)
)

// Cache and client reconciliation metrics
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidquest_cache_hits_total",
			Help: "Total number of cache hits by tier",
		},
		[]string{"tier"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kidquest_cache_misses_total",
			Help: "Total number of cache misses by tier",
		},
		[]string{"tier"},
	)

	OptimisticRollbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kidquest_optimistic_rollbacks_total",
			Help: "Total number of optimistic deltas reverted after a failed authoritative call",
		},
	)
)
