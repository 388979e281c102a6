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
			Help: "Total number of jobs failed or thrown by worker",
		},
		[]string{"task_type", "outcome"},
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

var (
	ApplicationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_applications_submitted_total",
			Help: "Applications stored by the submission worker",
		},
		[]string{"currency", "delivery_mode"},
	)

	SubmissionReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "admissions_submission_replays_total",
			Help: "Submissions answered from an already processed request token",
		},
	)

	FeeCalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_fee_calculations_total",
			Help: "Fee calculations by outcome (complete or incomplete)",
		},
		[]string{"outcome"},
	)

	SessionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_session_cache_lookups_total",
			Help: "Training session rate cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)

	WarningsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_warnings_raised_total",
			Help: "Pre-submission warnings raised by kind",
		},
		[]string{"kind"},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_status_transitions_total",
			Help: "Application status transitions applied by review",
		},
		[]string{"from", "to"},
	)
)
