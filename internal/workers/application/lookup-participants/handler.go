// internal/workers/application/lookup-participants/handler.go
package lookupparticipants

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"training-admissions/internal/common/errors"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/models"
)

const (
	TaskType = "lookup-participants"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:       config,
		db:           db,
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

// participantQuery groups every stored participant by email and counts
// the applications of $1 they appear on.
const participantQuery = `
	SELECT MIN(ap.id) AS id,
	       MIN(ap.name) AS name,
	       LOWER(ap.email) AS email,
	       MIN(ap.citizenship) AS citizenship,
	       COUNT(DISTINCT a.id) FILTER (WHERE a.training_session_id = $1) AS enrollment_count
	FROM application_participants ap
	JOIN applications a ON a.id = ap.application_id
	WHERE ap.name ILIKE $2 ESCAPE '\' OR ap.email ILIKE $2 ESCAPE '\'
	GROUP BY LOWER(ap.email)
	ORDER BY enrollment_count DESC, name ASC
	LIMIT $3`

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.TrainingSessionID) == "" {
		return nil, errors.NewInvalidInputError("trainingSessionId is required")
	}
	limit := h.limit(input.Limit)

	rows, err := h.db.QueryContext(ctx, participantQuery, input.TrainingSessionID, likePattern(input.Query), limit)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError("participant_lookup")
		}
		return nil, errors.NewQueryExecutionFailedError("participant_lookup", err)
	}
	defer rows.Close()

	output := &Output{Options: []models.ParticipantOption{}}
	for rows.Next() {
		var opt models.ParticipantOption
		if err := rows.Scan(&opt.ID, &opt.Name, &opt.Email, &opt.Tier, &opt.EnrollmentCount); err != nil {
			return nil, errors.NewQueryExecutionFailedError("participant_lookup", err)
		}
		if opt.EnrollmentCount > 0 {
			output.Enrolled++
		}
		output.Options = append(output.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("participant_lookup", err)
	}

	h.logger.Debug("participants looked up", map[string]interface{}{
		logger.FieldTrainingSessionID: input.TrainingSessionID,
		"options":                     len(output.Options),
		"enrolled":                    output.Enrolled,
	})
	return output, nil
}

func (h *Handler) limit(n int) int {
	switch {
	case n <= 0:
		return h.config.DefaultLimit
	case n > h.config.MaxLimit:
		return h.config.MaxLimit
	}
	return n
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a free-text query into a contains pattern. An empty
// query matches everyone.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(q)) + "%"
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
