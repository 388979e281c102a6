// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"

	"training-admissions/internal/common/config"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/common/metrics"
	"training-admissions/internal/common/observability"
)

// HandlerFunc is the Zeebe job handler signature every worker exposes.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Job outcomes, named after the command the handler sent.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeThrown    = "error_thrown"
	OutcomeNone      = "none"
)

// outcomeClient records which terminal command a handler issued.
type outcomeClient struct {
	worker.JobClient
	outcome atomic.Value
}

func (c *outcomeClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.outcome.Store(OutcomeCompleted)
	return c.JobClient.NewCompleteJobCommand()
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.outcome.Store(OutcomeFailed)
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.outcome.Store(OutcomeThrown)
	return c.JobClient.NewThrowErrorCommand()
}

func (c *outcomeClient) result() string {
	if v, ok := c.outcome.Load().(string); ok {
		return v
	}
	return OutcomeNone
}

// Instrument wraps h with the job gauges, counters and histogram, and a
// span per job. obs may be nil.
func Instrument(taskType string, h HandlerFunc, obs *observability.Observability) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		ctx, span := obs.StartSpan(context.Background(), "job "+taskType,
			attribute.String("task_type", taskType),
			attribute.Int64("job_key", job.Key),
			attribute.Int64("process_instance_key", job.ProcessInstanceKey),
		)
		defer span.End()

		oc := &outcomeClient{JobClient: client}
		h(oc, job)

		outcome := oc.result()
		elapsed := time.Since(start)
		span.SetAttributes(attribute.String("outcome", outcome))

		if outcome == OutcomeCompleted {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		} else {
			metrics.WorkerJobsFailed.WithLabelValues(taskType, outcome).Inc()
		}
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		obs.RecordJobProcessed(ctx, taskType, outcome)
		obs.RecordJobDuration(ctx, taskType, elapsed, outcome)
	}
}

// StartWorker opens a job worker for taskType unless it is disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, h HandlerFunc, log logger.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(h)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jobWorker
}
