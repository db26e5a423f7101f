// Package metrics registers the Prometheus collectors for the radar
// backend. Handlers observe request metrics; the sync services observe task
// and ingestion metrics.
package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TaskRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_task_runs_total",
			Help: "Task executions by task type and outcome (success, failure, skipped).",
		},
		[]string{"task", "outcome"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radar_task_duration_seconds",
			Help:    "Wall-clock duration of task executions.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"task"},
	)

	SnapshotsWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "radar_snapshots_written_total",
			Help: "Video snapshot rows appended by the ingestor.",
		},
	)

	SourceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radar_source_errors_total",
			Help: "Metrics source failures by classification.",
		},
		[]string{"kind"},
	)

	RollupRecomputes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "radar_rollup_recomputes_total",
			Help: "Daily stat rows recomputed (including backfill).",
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radar_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "radar_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)
)

// Register installs all collectors, plus live DB pool gauges when a pool is
// provided. Call once at startup.
func Register(pool *pgxpool.Pool) {
	if pool != nil {
		poolActive := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "radar_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 { return float64(pool.Stat().AcquiredConns()) },
		)
		poolIdle := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "radar_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 { return float64(pool.Stat().IdleConns()) },
		)
		prometheus.MustRegister(poolActive, poolIdle)
	}

	prometheus.MustRegister(
		TaskRuns,
		TaskDuration,
		SnapshotsWritten,
		SourceErrors,
		RollupRecomputes,
		RequestDuration,
		RequestsInFlight,
	)
}
