// internal/workers/application/review-application/handler.go
package reviewapplication

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"training-admissions/internal/common/database"
	"training-admissions/internal/common/errors"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/common/metrics"
	"training-admissions/internal/models"
)

const (
	TaskType = "review-application"
)

// SessionInvalidator drops cached session data after capacity changes.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, sessionID string) error
}

type Handler struct {
	config       *Config
	db           *sql.DB
	sessions     SessionInvalidator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, sessions SessionInvalidator, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:       config,
		db:           db,
		sessions:     sessions,
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

type reviewedApplication struct {
	sessionID string
	mode      models.DeliveryMode
	status    models.ApplicationStatus
	slots     models.Slots
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.ApplicationID == "" {
		return nil, errors.NewInvalidInputError("applicationId is required")
	}
	target, ok := input.Action.Target()
	if !ok {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown action %q", input.Action))
	}

	output := &Output{ApplicationID: input.ApplicationID, Status: target}

	err := database.WithTx(ctx, h.db, func(tx *sql.Tx) error {
		app, err := lockApplication(ctx, tx, input.ApplicationID)
		if err != nil {
			return err
		}
		output.TrainingSessionID = app.sessionID
		output.PreviousStatus = app.status
		output.DeliveryMode = app.mode

		if app.status == models.StatusCompleted {
			return errors.NewApplicationImmutableError(input.ApplicationID)
		}
		if !app.status.CanTransitionTo(target) {
			return errors.NewInvalidStatusTransitionError(string(app.status), string(target))
		}

		seats := 0
		switch {
		case target == models.StatusApproved:
			seats = app.slots.Total()
		case app.status == models.StatusApproved && target == models.StatusRejected:
			seats = -app.slots.Total()
		}
		remaining, err := adjustCapacity(ctx, tx, app.sessionID, app.mode, seats)
		if err != nil {
			return err
		}
		output.SeatsChanged = seats
		output.RemainingSlots = remaining

		if _, err := tx.ExecContext(ctx, `
			UPDATE applications SET status = $1, updated_at = NOW() WHERE id = $2`,
			target, input.ApplicationID); err != nil {
			return errors.NewQueryExecutionFailedError("update_application_status", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO application_audit_log (application_id, action, from_status, to_status, actor, note)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			input.ApplicationID, string(input.Action), app.status, target, input.Actor, input.Note); err != nil {
			return errors.NewDatabaseInsertFailedError(err)
		}
		return nil
	})
	if err != nil {
		if _, ok := errors.AsStandardError(err); ok {
			return nil, err
		}
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}

	metrics.StatusTransitions.WithLabelValues(string(output.PreviousStatus), string(output.Status)).Inc()

	if output.SeatsChanged != 0 && h.sessions != nil {
		if err := h.sessions.Invalidate(ctx, output.TrainingSessionID); err != nil {
			h.logger.Warn("failed to invalidate cached session", map[string]interface{}{
				logger.FieldTrainingSessionID: output.TrainingSessionID,
				"error":                       err,
			})
		}
	}

	h.logger.Info("application reviewed", map[string]interface{}{
		logger.FieldApplicationID: output.ApplicationID,
		"from":                    output.PreviousStatus,
		"to":                      output.Status,
		"seatsChanged":            output.SeatsChanged,
		"actor":                   input.Actor,
	})
	return output, nil
}

func lockApplication(ctx context.Context, tx *sql.Tx, id string) (*reviewedApplication, error) {
	var app reviewedApplication
	err := tx.QueryRowContext(ctx, `
		SELECT training_session_id, delivery_mode, status,
		       slots_citizen, slots_east_african, slots_global
		FROM applications
		WHERE id = $1
		FOR UPDATE`, id).Scan(
		&app.sessionID, &app.mode, &app.status,
		&app.slots.Citizen, &app.slots.EastAfrican, &app.slots.Global,
	)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return nil, errors.NewApplicationNotFoundError(id)
	case err != nil:
		return nil, errors.NewQueryExecutionFailedError("lock_application", err)
	}
	return &app, nil
}

// capacityColumns maps a delivery sub-mode to its capacity and taken
// columns on training_sessions.
var capacityColumns = map[models.DeliveryMode][2]string{
	models.ModeOnline:    {"online_slots", "online_slots_taken"},
	models.ModeOnPremise: {"on_premise_slots", "on_premise_slots_taken"},
}

// adjustCapacity moves seats into (positive) or out of (negative) the
// taken counter for mode and returns the capacity left afterwards.
func adjustCapacity(ctx context.Context, tx *sql.Tx, sessionID string, mode models.DeliveryMode, seats int) (int, error) {
	cols, ok := capacityColumns[mode]
	if !ok {
		return 0, errors.NewDeliveryModeNotOfferedError(fmt.Sprintf("application delivery mode %q", mode))
	}

	var capacity, taken int
	err := tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s, %s FROM training_sessions WHERE id = $1 FOR UPDATE`, cols[0], cols[1]),
		sessionID).Scan(&capacity, &taken)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return 0, errors.NewTrainingSessionNotFoundError(sessionID)
	case err != nil:
		return 0, errors.NewQueryExecutionFailedError("lock_training_session", err)
	}

	remaining := capacity - taken
	if seats == 0 {
		return remaining, nil
	}
	if seats > remaining {
		return 0, errors.NewCapacityExceededError(string(mode), seats, remaining)
	}

	taken += seats
	if taken < 0 {
		taken = 0
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
		UPDATE training_sessions SET %s = $1 WHERE id = $2`, cols[1]),
		taken, sessionID); err != nil {
		return 0, errors.NewQueryExecutionFailedError("update_slots_taken", err)
	}
	return capacity - taken, nil
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
