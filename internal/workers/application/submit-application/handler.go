// internal/workers/application/submit-application/handler.go
package submitapplication

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"training-admissions/internal/admission/fees"
	"training-admissions/internal/admission/sessions"
	"training-admissions/internal/admission/slots"
	"training-admissions/internal/admission/warnings"
	"training-admissions/internal/common/database"
	"training-admissions/internal/common/errors"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/common/metrics"
	"training-admissions/internal/common/validation"
	"training-admissions/internal/models"
)

const (
	TaskType = "submit-application"
)

// OrganizationIndexer makes a newly created organization searchable.
type OrganizationIndexer interface {
	Index(ctx context.Context, org models.Organization) error
}

type Handler struct {
	config       *Config
	db           *sql.DB
	redis        *redis.Client
	sessions     sessions.Loader
	orgs         OrganizationIndexer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler wires the handler. orgs may be nil; new organizations are
// then only stored in Postgres.
func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, loader sessions.Loader, orgs OrganizationIndexer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:       config,
		db:           db,
		redis:        rdb,
		sessions:     loader,
		orgs:         orgs,
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

// Submit lets the wizard controller call the worker in-process.
func (h *Handler) Submit(ctx context.Context, req *models.SubmissionRequest) (*models.SubmissionResult, error) {
	if req == nil {
		return nil, errors.NewInvalidInputError("submission request is required")
	}
	output, err := h.execute(ctx, &Input{SubmissionRequest: *req})
	if err != nil {
		return nil, err
	}
	return &output.SubmissionResult, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("submission request is required")
	}
	if res := validation.ValidateStruct(&input.SubmissionRequest); !res.Valid {
		return failed(fmt.Sprintf("Invalid submission: %s", res.Summary())), nil
	}

	token := input.RequestToken
	log := h.logger.WithFields(map[string]interface{}{logger.FieldRequestToken: token})

	if replay, err := h.claim(ctx, token); err != nil || replay != nil {
		if replay != nil {
			metrics.SubmissionReplays.Inc()
			log.Info("replaying stored submission result", map[string]interface{}{
				logger.FieldApplicationID: replay.ApplicationID,
			})
		}
		return replay, err
	}

	output, err := h.submit(ctx, input)
	if err != nil {
		h.release(token, log)
		if userFacing(err) {
			stdErr, _ := errors.AsStandardError(err)
			log.Warn("submission rejected", map[string]interface{}{
				"errorCode": stdErr.Code,
				"details":   stdErr.Details,
			})
			return failed(describe(stdErr)), nil
		}
		return nil, err
	}

	h.remember(token, output, log)
	return output, nil
}

// claim marks token as in flight. It returns the stored output when the
// token has already been processed.
func (h *Handler) claim(ctx context.Context, token string) (*Output, error) {
	key := h.key(token)

	stored, err := h.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		return h.replay(token, stored)
	case !stderrors.Is(err, redis.Nil):
		return nil, errors.NewCacheOperationFailedError("get", err)
	}

	ok, err := h.redis.SetNX(ctx, key, pendingMarker, h.config.InFlightTTL).Result()
	if err != nil {
		return nil, errors.NewCacheOperationFailedError("setnx", err)
	}
	if !ok {
		return nil, errors.NewSubmissionInProgressError(token)
	}
	return nil, nil
}

func (h *Handler) replay(token, stored string) (*Output, error) {
	if stored == pendingMarker {
		return nil, errors.NewSubmissionInProgressError(token)
	}
	var result models.SubmissionResult
	if err := json.Unmarshal([]byte(stored), &result); err != nil {
		return nil, errors.NewCacheOperationFailedError("decode", err)
	}
	result.Replayed = true
	return &Output{SubmissionResult: result}, nil
}

// remember stores a successful result for replay. Failures are not
// stored so the same token can be resubmitted once the data is fixed.
func (h *Handler) remember(token string, output *Output, log logger.Logger) {
	if output.Kind != models.SubmissionSuccess {
		h.release(token, log)
		return
	}
	data, err := json.Marshal(output.SubmissionResult)
	if err != nil {
		log.Warn("failed to encode submission result", map[string]interface{}{"error": err})
		return
	}
	if err := h.redis.Set(context.Background(), h.key(token), data, h.config.IdempotencyTTL).Err(); err != nil {
		log.Warn("failed to store submission result, request_token constraint still applies", map[string]interface{}{"error": err})
	}
}

func (h *Handler) release(token string, log logger.Logger) {
	if err := h.redis.Del(context.Background(), h.key(token)).Err(); err != nil {
		log.Warn("failed to release request token", map[string]interface{}{"error": err})
	}
}

func (h *Handler) key(token string) string {
	return database.Key(h.config.KeyPrefix, "submission", token)
}

// submit re-checks the fee against the session and stores the application.
func (h *Handler) submit(ctx context.Context, input *Input) (*Output, error) {
	req := &input.SubmissionRequest
	form := &req.ApplicationForm

	session, err := h.sessions.Get(ctx, form.TrainingSessionID)
	if err != nil {
		return nil, err
	}
	mode, err := fees.ResolveMode(session.Mode, form.DeliveryMode)
	if err != nil {
		return nil, errors.NewDeliveryModeNotOfferedError(err.Error())
	}
	requested := req.Currency
	if requested == "" {
		requested = form.Currency
	}
	currency, err := fees.ResolveCurrency(&session.TrainingSession, requested)
	if err != nil {
		return nil, errors.NewCurrencyNotChargedError(err.Error())
	}

	participants := req.SubmittedParticipants()
	reconciled := slots.Reconcile(req.SubmittedSlots(), participants)

	snapshot := fees.NewSnapshot(reconciled, session.Rates, mode, currency)
	if !snapshot.Confirmable() {
		missing := make([]string, len(snapshot.Missing))
		for i, tier := range snapshot.Missing {
			missing[i] = string(tier)
		}
		return nil, errors.NewFeeIncompleteError(missing)
	}
	if math.Abs(*snapshot.Total-req.ApplicationFee) > h.config.Tolerance {
		return nil, errors.NewFeeMismatchError(req.ApplicationFee, *snapshot.Total)
	}

	orgID := req.OrganizationID
	if orgID == nil || *orgID == "" {
		orgID = form.OrganizationID
	}
	var newOrg *models.Organization
	if form.SponsorType == models.SponsorOrganization && (orgID == nil || *orgID == "") {
		name := strings.TrimSpace(form.OrganizationName)
		if name == "" {
			return nil, errors.NewApplicationValidationFailedError("organization sponsorship needs an organization")
		}
		newOrg = &models.Organization{ID: uuid.NewString(), Name: name}
		orgID = &newOrg.ID
	}

	app := models.Application{
		ID:                uuid.NewString(),
		TrainingSessionID: session.ID,
		SponsorType:       form.SponsorType,
		DeliveryMode:      mode,
		OrganizationID:    orgID,
		Participants:      participants,
		Slots:             reconciled,
		Fee:               snapshot.Total,
		Currency:          currency,
		Status:            models.StatusPending,
		RequestToken:      req.RequestToken,
	}

	existingID, err := h.insert(ctx, &app, newOrg, req.Payee, input.SubmittedBy)
	if err != nil {
		return nil, err
	}
	if existingID != "" {
		result := models.SubmissionSucceeded(existingID, MessageSubmitted)
		result.Replayed = true
		metrics.SubmissionReplays.Inc()
		return &Output{SubmissionResult: result}, nil
	}

	if newOrg != nil && h.orgs != nil {
		if err := h.orgs.Index(ctx, *newOrg); err != nil {
			h.logger.Warn("failed to index new organization", map[string]interface{}{
				"organizationId": newOrg.ID,
				"error":          err,
			})
		}
	}

	metrics.ApplicationsSubmitted.WithLabelValues(string(currency), string(mode)).Inc()
	h.logger.Info("application submitted", map[string]interface{}{
		logger.FieldApplicationID:     app.ID,
		logger.FieldTrainingSessionID: app.TrainingSessionID,
		logger.FieldRequestToken:      app.RequestToken,
		"fee":                         *app.Fee,
		"currency":                    app.Currency,
		"participants":                len(app.Participants),
	})

	return &Output{SubmissionResult: models.SubmissionSucceeded(app.ID, MessageSubmitted)}, nil
}

// insert stores app, its participants and an audit entry in one
// transaction. When the request token is already stored it returns the
// existing application id and writes nothing.
func (h *Handler) insert(ctx context.Context, app *models.Application, newOrg *models.Organization, payee *models.Payee, actor string) (string, error) {
	var payeeJSON []byte
	if !payee.IsEmpty() {
		data, err := json.Marshal(payee)
		if err != nil {
			return "", errors.NewInternalError(err)
		}
		payeeJSON = data
	}

	var existingID string
	err := database.WithTx(ctx, h.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM applications WHERE request_token = $1`, app.RequestToken).Scan(&existingID)
		switch {
		case err == nil:
			return nil
		case !stderrors.Is(err, sql.ErrNoRows):
			return errors.NewQueryExecutionFailedError("request_token_lookup", err)
		}

		if err := blockDuplicates(ctx, tx, app); err != nil {
			return err
		}

		if newOrg != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO organizations (id, name) VALUES ($1, $2)`,
				newOrg.ID, newOrg.Name); err != nil {
				return errors.NewDatabaseInsertFailedError(err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO applications (
				id, training_session_id, sponsor_type, delivery_mode, organization_id,
				slots_citizen, slots_east_african, slots_global,
				fee, currency, status, payee, request_token
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			app.ID, app.TrainingSessionID, app.SponsorType, app.DeliveryMode, app.OrganizationID,
			app.Slots.Citizen, app.Slots.EastAfrican, app.Slots.Global,
			*app.Fee, app.Currency, app.Status, payeeJSON, app.RequestToken,
		); err != nil {
			return errors.NewDatabaseInsertFailedError(err)
		}

		for _, p := range app.Participants {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO application_participants (
					id, application_id, name, email, citizenship, national_id, is_owner, user_id
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.NewString(), app.ID, p.Name, slots.NormalizeEmail(p.Email), p.Tier, p.NationalID, p.IsOwner, p.UserID,
			); err != nil {
				return errors.NewDatabaseInsertFailedError(err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO application_audit_log (application_id, action, from_status, to_status, actor, note)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			app.ID, auditActionSubmitted, nil, app.Status, actor, "",
		); err != nil {
			return errors.NewDatabaseInsertFailedError(err)
		}
		return nil
	})
	if err != nil {
		if _, ok := errors.AsStandardError(err); ok {
			return "", err
		}
		return "", errors.NewDatabaseConnectionFailedError(err)
	}
	return existingID, nil
}

// blockDuplicates refuses participants who are still enrolled on the
// session through another application. The admin resolves them by
// removal before submitting, so any left here were never resolved.
func blockDuplicates(ctx context.Context, tx *sql.Tx, app *models.Application) error {
	emails := make([]string, 0, len(app.Participants))
	for _, p := range app.Participants {
		emails = append(emails, slots.NormalizeEmail(p.Email))
	}
	enrolled, err := sessions.Enrolled(ctx, tx, app.TrainingSessionID, emails)
	if err != nil {
		return err
	}
	found := warnings.DetectDuplicates(app.Participants, enrolled, app.TrainingSessionID, "")
	if len(found) == 0 {
		return nil
	}
	dups := make([]string, len(found))
	for i, w := range found {
		dups[i] = slots.NormalizeEmail(w.Email)
	}
	return errors.NewSubmissionBlockedError("already enrolled: " + strings.Join(dups, ", "))
}

// userFacing reports errors that are answered with {kind:"error"} rather
// than failing the job.
func userFacing(err error) bool {
	stdErr, ok := errors.AsStandardError(err)
	if !ok {
		return false
	}
	switch stdErr.Code {
	case errors.ErrCodeTrainingSessionNotFound,
		errors.ErrCodeDeliveryModeNotOffered,
		errors.ErrCodeCurrencyNotCharged,
		errors.ErrCodeFeeIncomplete,
		errors.ErrCodeFeeMismatch,
		errors.ErrCodeApplicationValidationFailed,
		errors.ErrCodeSubmissionBlocked:
		return true
	}
	return false
}

func describe(stdErr *errors.StandardError) string {
	if stdErr.Details == "" {
		return stdErr.Message
	}
	return fmt.Sprintf("%s (%s)", stdErr.Message, stdErr.Details)
}

func failed(message string) *Output {
	return &Output{SubmissionResult: models.SubmissionFailed(message)}
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
