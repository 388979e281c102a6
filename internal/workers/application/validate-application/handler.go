// internal/workers/application/validate-application/handler.go
package validateapplication

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"training-admissions/internal/admission/fees"
	"training-admissions/internal/admission/organizations"
	"training-admissions/internal/admission/sessions"
	"training-admissions/internal/admission/slots"
	"training-admissions/internal/admission/warnings"
	"training-admissions/internal/common/errors"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/common/metrics"
	"training-admissions/internal/common/validation"
	"training-admissions/internal/models"
)

const (
	TaskType = "validate-application"
)

// Enrollments lists participants already attached to a session.
type Enrollments interface {
	Enrolled(ctx context.Context, sessionID string, emails []string) ([]models.EnrolledParticipant, error)
}

type Handler struct {
	config       *Config
	sessions     sessions.Loader
	enrollments  Enrollments
	orgs         organizations.Finder
	schema       *validation.Schema
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler wires the handler. schema may be nil, in which case only
// struct validation applies.
func NewHandler(config *Config, loader sessions.Loader, enrollments Enrollments, orgs organizations.Finder, schema *validation.Schema, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:       config,
		sessions:     loader,
		enrollments:  enrollments,
		orgs:         orgs,
		schema:       schema,
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
	if input == nil || input.Form == nil {
		return nil, errors.NewInvalidInputError("application form is required")
	}

	form, result, err := h.parseForm(input.Form)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return invalid(MessageInvalidForm, result), nil
	}

	session, err := h.sessions.Get(ctx, form.TrainingSessionID)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeTrainingSessionNotFound) {
			result.Add("trainingSessionId", string(errors.ErrCodeTrainingSessionNotFound), "does not exist")
			return invalid(MessageSessionNotFound, result), nil
		}
		return nil, err
	}
	if problems := models.ValidateSessionRates(&session.TrainingSession); len(problems) > 0 {
		h.logger.Warn("training session rates are inconsistent", map[string]interface{}{
			logger.FieldTrainingSessionID: session.ID,
			"problems":                    problems,
		})
	}

	mode, err := fees.ResolveMode(session.Mode, form.DeliveryMode)
	if err != nil {
		result.Add("deliveryMode", string(errors.ErrCodeDeliveryModeNotOffered), fmt.Sprintf("is not offered by this session (%s)", session.Mode))
	}
	currency, err := fees.ResolveCurrency(&session.TrainingSession, form.Currency)
	if err != nil {
		result.Add("currency", string(errors.ErrCodeCurrencyNotCharged), "is not charged by this session")
	}
	if !result.Valid {
		return invalid(MessageInvalidForm, result), nil
	}

	form.DeliveryMode = mode
	form.Currency = currency
	form.Slots = slots.Reconcile(form.Slots, form.Participants)

	output := &Output{
		Kind:                       KindValid,
		Data:                       form,
		ApplicationTrainingSession: session,
		ParticipantWarnings:        []warnings.ParticipantWarning{},
	}

	duplicates, err := h.detectDuplicates(ctx, session.ID, input.ApplicationID, form.Participants)
	if err != nil {
		return nil, err
	}
	output.ParticipantWarnings = duplicates

	if form.SponsorType == models.SponsorOrganization {
		if err := h.matchOrganization(ctx, form, output); err != nil {
			return nil, err
		}
	}

	output.HasWarning = len(output.ParticipantWarnings) > 0 || output.OrganizationError != nil
	if n := len(output.ParticipantWarnings); n > 0 {
		metrics.WarningsRaised.WithLabelValues("duplicate_participant").Add(float64(n))
	}
	if output.OrganizationError != nil {
		metrics.WarningsRaised.WithLabelValues("organization_" + string(output.OrganizationError.Kind)).Inc()
	}

	h.logger.Info("application validated", map[string]interface{}{
		logger.FieldTrainingSessionID: session.ID,
		"participants":                len(form.Participants),
		"participantWarnings":         len(output.ParticipantWarnings),
		"organizationWarning":         output.OrganizationError != nil,
	})
	return output, nil
}

// parseForm runs the registry schema over the raw form, decodes it and
// applies struct and cross-field rules. A returned error is never a
// user error.
func (h *Handler) parseForm(raw map[string]interface{}) (*models.ApplicationForm, *validation.ValidationResult, error) {
	result := &validation.ValidationResult{Valid: true}

	if h.schema != nil {
		schemaResult, err := h.schema.Validate(raw)
		if err != nil {
			return nil, nil, errors.NewInternalError(err)
		}
		if !schemaResult.Valid {
			return nil, schemaResult, nil
		}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, errors.NewInvalidInputError(err.Error())
	}
	var form models.ApplicationForm
	if err := json.Unmarshal(data, &form); err != nil {
		result.Add("form", "DECODE", err.Error())
		return nil, result, nil
	}

	result.Merge(validation.ValidateStruct(&form))

	if form.SponsorType == models.SponsorOrganization && !hasOrganizationID(&form) && form.OrganizationName == "" {
		result.Add("organizationName", "REQUIRED", "is required when no existing organization is selected")
	}
	if len(form.Participants) == 0 {
		result.Add("participants", "MIN", "must list at least one participant")
	}
	seen := make(map[string]int, len(form.Participants))
	for i, p := range form.Participants {
		email := slots.NormalizeEmail(p.Email)
		if email == "" {
			continue
		}
		if first, ok := seen[email]; ok {
			result.Add(fmt.Sprintf("participants[%d].email", i), "DUPLICATE",
				fmt.Sprintf("is already listed as participant %d", first+1))
			continue
		}
		seen[email] = i
	}
	return &form, result, nil
}

func (h *Handler) detectDuplicates(ctx context.Context, sessionID, applicationID string, participants []models.Participant) ([]warnings.ParticipantWarning, error) {
	emails := make([]string, 0, len(participants))
	for _, p := range participants {
		emails = append(emails, slots.NormalizeEmail(p.Email))
	}
	enrolled, err := h.enrollments.Enrolled(ctx, sessionID, emails)
	if err != nil {
		return nil, err
	}
	found := warnings.DetectDuplicates(participants, enrolled, sessionID, applicationID)
	if found == nil {
		found = []warnings.ParticipantWarning{}
	}
	return found, nil
}

// matchOrganization fills organizationError or organizationSuccess. The
// form's organization linkage is left as submitted.
func (h *Handler) matchOrganization(ctx context.Context, form *models.ApplicationForm, output *Output) error {
	if hasOrganizationID(form) {
		output.OrganizationSuccess = "Existing organization selected"
		return nil
	}

	candidates, err := h.orgs.Search(ctx, form.OrganizationName, h.config.CandidateLimit)
	if err != nil {
		return err
	}
	if w := warnings.MatchOrganization(form.OrganizationName, candidates); w != nil {
		output.OrganizationError = w
		return nil
	}
	output.OrganizationSuccess = fmt.Sprintf("Organization %q will be created with this application", form.OrganizationName)
	return nil
}

func hasOrganizationID(form *models.ApplicationForm) bool {
	return form.OrganizationID != nil && *form.OrganizationID != ""
}

func invalid(message string, result *validation.ValidationResult) *Output {
	return &Output{
		Kind:       KindInvalid,
		Error:      message,
		FormErrors: result.FormErrors(),
	}
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
