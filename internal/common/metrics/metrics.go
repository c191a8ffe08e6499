// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ==========================
// Pipeline metrics
// ==========================

var (
	StagesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_stages_completed_total",
		Help: "Total number of pipeline stages completed successfully",
	}, []string{"stage"})

	StagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_stages_failed_total",
		Help: "Total number of pipeline stages that exhausted retries",
	}, []string{"stage", "error_code"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Duration of pipeline stage executions",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	RetryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_retry_attempts_total",
		Help: "Total number of retry attempts per stage",
	}, []string{"stage"})

	PipelinesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_executions_completed_total",
		Help: "Total number of pipeline executions that completed",
	})

	PipelinesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_executions_failed_total",
		Help: "Total number of pipeline executions that failed",
	})
)
