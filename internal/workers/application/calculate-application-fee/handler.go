// internal/workers/application/calculate-application-fee/handler.go
package calculateapplicationfee

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"training-admissions/internal/admission/fees"
	"training-admissions/internal/admission/sessions"
	"training-admissions/internal/admission/slots"
	"training-admissions/internal/common/errors"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/common/metrics"
)

const (
	TaskType = "calculate-application-fee"
)

type Handler struct {
	config       *Config
	sessions     sessions.Loader
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, loader sessions.Loader, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:       config,
		sessions:     loader,
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
	if input == nil || input.TrainingSessionID == "" {
		return nil, errors.NewInvalidInputError("trainingSessionId is required")
	}

	session, err := h.sessions.Get(ctx, input.TrainingSessionID)
	if err != nil {
		return nil, err
	}

	mode, err := fees.ResolveMode(session.Mode, input.DeliveryMode)
	if err != nil {
		return nil, errors.NewDeliveryModeNotOfferedError(err.Error())
	}
	currency, err := fees.ResolveCurrency(&session.TrainingSession, input.Currency)
	if err != nil {
		return nil, errors.NewCurrencyNotChargedError(err.Error())
	}

	reconciled := slots.Reconcile(input.Slots, input.Participants)
	snapshot := fees.NewSnapshot(reconciled, session.Rates, mode, currency)

	outcome := OutcomeComplete
	if !snapshot.Confirmable() {
		outcome = OutcomeIncomplete
	}
	metrics.FeeCalculations.WithLabelValues(outcome).Inc()

	h.logger.Info("application fee calculated", map[string]interface{}{
		logger.FieldTrainingSessionID: session.ID,
		"deliveryMode":                mode,
		"currency":                    currency,
		"outcome":                     outcome,
		"missingRates":                snapshot.Missing,
	})

	return &Output{
		FeeSnapshot:    snapshot,
		FeeConfirmable: snapshot.Confirmable(),
		ApplicationFee: snapshot.Total,
	}, nil
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
