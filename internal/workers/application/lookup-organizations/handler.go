// internal/workers/application/lookup-organizations/handler.go
package lookuporganizations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"training-admissions/internal/admission/organizations"
	"training-admissions/internal/admission/warnings"
	"training-admissions/internal/common/errors"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/models"
)

const (
	TaskType = "lookup-organizations"
)

type Handler struct {
	config       *Config
	finder       organizations.Finder
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, finder organizations.Finder, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:       config,
		finder:       finder,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		logger.FieldJobKey: job.Key,
		"workflowKey":      job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job,
			errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("query is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = h.config.Limit
	}

	found, err := h.finder.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, err
	}

	output := &Output{Options: found}
	if output.Options == nil {
		output.Options = []models.Organization{}
	}
	if exact := warnings.MatchOrganization(input.Query, found).Exact(); exact != nil {
		output.ExactMatchID = exact.ID
	}

	h.logger.Debug("organizations looked up", map[string]interface{}{
		"query":   input.Query,
		"options": len(output.Options),
		"exact":   output.ExactMatchID != "",
	})
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
