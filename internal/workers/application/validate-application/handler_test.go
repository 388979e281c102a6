// internal/workers/application/validate-application/handler_test.go
package validateapplication

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-admissions/internal/admission/organizations"
	"training-admissions/internal/admission/sessions"
	"training-admissions/internal/admission/warnings"
	"training-admissions/internal/common/errors"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/common/validation"
	"training-admissions/internal/models"
	"training-admissions/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func f(v float64) *float64 { return &v }

type stubLoader struct {
	views map[string]*models.TrainingSessionView
}

func (s *stubLoader) Get(_ context.Context, id string) (*models.TrainingSessionView, error) {
	if v, ok := s.views[id]; ok {
		copied := *v
		return &copied, nil
	}
	return nil, errors.NewTrainingSessionNotFoundError(id)
}

type stubEnrollments struct {
	enrolled []models.EnrolledParticipant
	err      error
	emails   []string
}

func (s *stubEnrollments) Enrolled(_ context.Context, _ string, emails []string) ([]models.EnrolledParticipant, error) {
	s.emails = emails
	return s.enrolled, s.err
}

type stubFinder struct {
	orgs  []models.Organization
	err   error
	calls int
}

func (s *stubFinder) Search(_ context.Context, _ string, _ int) ([]models.Organization, error) {
	s.calls++
	return s.orgs, s.err
}

func defaultSession() *models.TrainingSessionView {
	return &models.TrainingSessionView{
		TrainingSession: models.TrainingSession{
			ID:                "sess-1",
			ProgramID:         "prog-1",
			Mode:              models.ModeOnPremise,
			Venue:             "Hall A",
			OnPremiseCapacity: 30,
			Rates:             models.FeeRates{CitizenFee: f(1000), EastAfricaFee: f(1500), GlobalParticipantFee: f(2000)},
		},
		ProgramTitle: "Leadership",
		ProgramCode:  "LD-1",
	}
}

func newTestHandler(t *testing.T, enrollments Enrollments, finder organizations.Finder, schema *validation.Schema) *Handler {
	loader := &stubLoader{views: map[string]*models.TrainingSessionView{"sess-1": defaultSession()}}
	return NewHandler(LoadConfig(), loader, enrollments, finder, schema, logger.NewTestLogger(t))
}

func registrySchema(t *testing.T) *validation.Schema {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	reg, err := registry.LoadRegistry(filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	schema, err := reg.InputSchema(TaskType)
	require.NoError(t, err)
	return schema
}

func participant(name, email, tier string) map[string]interface{} {
	return map[string]interface{}{"name": name, "email": email, "citizenship": tier}
}

func baseForm() map[string]interface{} {
	return map[string]interface{}{
		"trainingSessionId": "sess-1",
		"sponsorType":       "self_sponsored",
		"deliveryMode":      "on_premise",
		"slots":             map[string]interface{}{"slotsCitizen": 1},
		"participants": []interface{}{
			participant("Jane Doe", "jane@example.com", "citizen"),
			participant("John Roe", "john@example.com", "citizen"),
			participant("Amina K", "amina@example.com", "east_african"),
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Valid(t *testing.T) {
	enrollments := &stubEnrollments{}
	handler := newTestHandler(t, enrollments, &stubFinder{}, registrySchema(t))

	output, err := handler.Execute(context.Background(), &Input{Form: baseForm()})
	require.NoError(t, err)

	assert.Equal(t, KindValid, output.Kind)
	assert.True(t, output.Valid())
	assert.False(t, output.HasWarning)
	assert.Empty(t, output.ParticipantWarnings)
	assert.Nil(t, output.OrganizationError)
	assert.Empty(t, output.FormErrors)

	require.NotNil(t, output.Data)
	assert.Equal(t, models.Slots{Citizen: 2, EastAfrican: 1}, output.Data.Slots)
	assert.Equal(t, models.CurrencyLocal, output.Data.Currency)
	require.NotNil(t, output.ApplicationTrainingSession)
	assert.Equal(t, "LD-1", output.ApplicationTrainingSession.ProgramCode)
	require.NotNil(t, output.ApplicationTrainingSession.Rates.CitizenFee)

	assert.Equal(t, []string{"jane@example.com", "john@example.com", "amina@example.com"}, enrollments.emails)
}

func TestHandler_Execute_SchemaErrors(t *testing.T) {
	form := baseForm()
	form["deliveryMode"] = "both"
	form["participants"] = []interface{}{
		participant("Jane Doe", "not-an-email", "citizen"),
		map[string]interface{}{"name": "No Email", "citizenship": "global"},
	}
	delete(form, "trainingSessionId")

	handler := newTestHandler(t, &stubEnrollments{}, &stubFinder{}, registrySchema(t))
	output, err := handler.Execute(context.Background(), &Input{Form: form})
	require.NoError(t, err)

	assert.Equal(t, KindInvalid, output.Kind)
	assert.Equal(t, MessageInvalidForm, output.Error)
	assert.Nil(t, output.Data)
	assert.Contains(t, output.FormErrors, "trainingSessionId")
	assert.Contains(t, output.FormErrors, "deliveryMode")
	assert.Contains(t, output.FormErrors, "participants[0].email")
	assert.Contains(t, output.FormErrors, "participants[1].email")
}

func TestHandler_Execute_FormRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(form map[string]interface{})
		field  string
		msg    string
	}{
		{
			name:   "session id required",
			mutate: func(form map[string]interface{}) { delete(form, "trainingSessionId") },
			field:  "trainingSessionId",
			msg:    "is required",
		},
		{
			name:   "application mode must be a sub-mode",
			mutate: func(form map[string]interface{}) { form["deliveryMode"] = "both" },
			field:  "deliveryMode",
			msg:    "must be one of: online on_premise",
		},
		{
			name:   "organization sponsor needs an organization",
			mutate: func(form map[string]interface{}) { form["sponsorType"] = "organization" },
			field:  "organizationName",
			msg:    "is required when no existing organization is selected",
		},
		{
			name: "participant listed twice",
			mutate: func(form map[string]interface{}) {
				form["participants"] = []interface{}{
					participant("Jane Doe", "jane@example.com", "citizen"),
					participant("Jane D", "JANE@example.com ", "citizen"),
				}
			},
			field: "participants[1].email",
			msg:   "is already listed as participant 1",
		},
		{
			name:   "at least one participant",
			mutate: func(form map[string]interface{}) { form["participants"] = []interface{}{} },
			field:  "participants",
			msg:    "must list at least one participant",
		},
		{
			name: "negative slots",
			mutate: func(form map[string]interface{}) {
				form["slots"] = map[string]interface{}{"slotsGlobal": -1}
			},
			field: "slots.slotsGlobal",
			msg:   "must be greater than or equal to 0",
		},
		{
			name:   "wrong type",
			mutate: func(form map[string]interface{}) { form["slots"] = "three" },
			field:  "form",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := baseForm()
			tt.mutate(form)

			// no schema: struct and cross-field rules only
			handler := newTestHandler(t, &stubEnrollments{}, &stubFinder{}, nil)
			output, err := handler.Execute(context.Background(), &Input{Form: form})
			require.NoError(t, err)

			assert.Equal(t, KindInvalid, output.Kind)
			require.Contains(t, output.FormErrors, tt.field)
			if tt.msg != "" {
				assert.Contains(t, output.FormErrors[tt.field], tt.msg)
			}
		})
	}
}

func TestHandler_Execute_SessionRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(form map[string]interface{})
		field   string
		message string
	}{
		{
			name:    "unknown session",
			mutate:  func(form map[string]interface{}) { form["trainingSessionId"] = "sess-404" },
			field:   "trainingSessionId",
			message: MessageSessionNotFound,
		},
		{
			name:    "online not offered",
			mutate:  func(form map[string]interface{}) { form["deliveryMode"] = "online" },
			field:   "deliveryMode",
			message: MessageInvalidForm,
		},
		{
			name:    "usd not charged",
			mutate:  func(form map[string]interface{}) { form["currency"] = "usd" },
			field:   "currency",
			message: MessageInvalidForm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := baseForm()
			tt.mutate(form)

			handler := newTestHandler(t, &stubEnrollments{}, &stubFinder{}, nil)
			output, err := handler.Execute(context.Background(), &Input{Form: form})
			require.NoError(t, err)

			assert.Equal(t, KindInvalid, output.Kind)
			assert.Equal(t, tt.message, output.Error)
			assert.Contains(t, output.FormErrors, tt.field)
		})
	}
}

// ==========================
// Warnings
// ==========================

func TestHandler_Execute_DuplicateParticipants(t *testing.T) {
	enrollments := &stubEnrollments{enrolled: []models.EnrolledParticipant{
		{ApplicationID: "app-9", TrainingSessionID: "sess-1", Name: "Jane Doe", Email: "JANE@example.com"},
		{ApplicationID: "app-own", TrainingSessionID: "sess-1", Name: "John Roe", Email: "john@example.com"},
	}}
	handler := newTestHandler(t, enrollments, &stubFinder{}, nil)

	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-own", Form: baseForm()})
	require.NoError(t, err)

	assert.Equal(t, KindValid, output.Kind)
	assert.True(t, output.HasWarning)
	require.Len(t, output.ParticipantWarnings, 1)
	assert.Equal(t, "app-9", output.ParticipantWarnings[0].ExistingApplicationID)
	assert.Equal(t, "jane@example.com", output.ParticipantWarnings[0].Email)
}

func TestHandler_Execute_EnrollmentsFromPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery(`FROM application_participants ap`).
		WithArgs("sess-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"application_id", "training_session_id", "name", "email"}).
			AddRow("app-3", "sess-1", "Amina K", "amina@example.com"))

	handler := newTestHandler(t, sessions.NewStore(db), &stubFinder{}, nil)
	output, err := handler.Execute(context.Background(), &Input{Form: baseForm()})
	require.NoError(t, err)

	require.Len(t, output.ParticipantWarnings, 1)
	assert.Equal(t, "amina@example.com", output.ParticipantWarnings[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_EnrollmentQueryFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery(`FROM application_participants ap`).WillReturnError(sql.ErrConnDone)

	handler := newTestHandler(t, sessions.NewStore(db), &stubFinder{}, nil)
	output, err := handler.Execute(context.Background(), &Input{Form: baseForm()})
	assert.Nil(t, output)
	assert.True(t, errors.HasCode(err, errors.ErrCodeQueryExecutionFailed))
}

func newOrganizationSearcher(t *testing.T, body string) *organizations.Searcher {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return organizations.NewSearcher(client, "organizations")
}

func TestHandler_Execute_OrganizationExactMatch(t *testing.T) {
	searcher := newOrganizationSearcher(t, `{"hits": {"hits": [
		{"_id": "org-1", "_source": {"id": "org-1", "name": "ACME Limited"}}
	]}}`)
	handler := newTestHandler(t, &stubEnrollments{}, searcher, nil)

	form := baseForm()
	form["sponsorType"] = "organization"
	form["organizationName"] = "Acme Ltd."

	output, err := handler.Execute(context.Background(), &Input{Form: form})
	require.NoError(t, err)

	assert.Equal(t, KindValid, output.Kind)
	assert.True(t, output.HasWarning)
	require.NotNil(t, output.OrganizationError)
	assert.Equal(t, warnings.MatchExact, output.OrganizationError.Kind)
	assert.Equal(t, "org-1", output.OrganizationError.Exact().ID)
	assert.Empty(t, output.OrganizationSuccess)

	// the linkage decision stays with the submitter
	assert.Nil(t, output.Data.OrganizationID)
	assert.Equal(t, "Acme Ltd.", output.Data.OrganizationName)
}

func TestHandler_Execute_OrganizationSimilarAndNew(t *testing.T) {
	t.Run("similar", func(t *testing.T) {
		finder := &stubFinder{orgs: []models.Organization{{ID: "org-2", Name: "Acme Holdings"}}}
		handler := newTestHandler(t, &stubEnrollments{}, finder, nil)

		form := baseForm()
		form["sponsorType"] = "organization"
		form["organizationName"] = "Acme"

		output, err := handler.Execute(context.Background(), &Input{Form: form})
		require.NoError(t, err)
		require.NotNil(t, output.OrganizationError)
		assert.Equal(t, warnings.MatchSimilar, output.OrganizationError.Kind)
		assert.True(t, output.HasWarning)
	})

	t.Run("new organization", func(t *testing.T) {
		handler := newTestHandler(t, &stubEnrollments{}, &stubFinder{}, nil)

		form := baseForm()
		form["sponsorType"] = "organization"
		form["organizationName"] = "Brand New Co"

		output, err := handler.Execute(context.Background(), &Input{Form: form})
		require.NoError(t, err)
		assert.Nil(t, output.OrganizationError)
		assert.False(t, output.HasWarning)
		assert.Contains(t, output.OrganizationSuccess, "Brand New Co")
	})

	t.Run("existing organization selected", func(t *testing.T) {
		finder := &stubFinder{}
		handler := newTestHandler(t, &stubEnrollments{}, finder, nil)

		form := baseForm()
		form["sponsorType"] = "organization"
		form["organizationId"] = "org-1"

		output, err := handler.Execute(context.Background(), &Input{Form: form})
		require.NoError(t, err)
		assert.Equal(t, 0, finder.calls)
		assert.NotEmpty(t, output.OrganizationSuccess)
	})

	t.Run("search failure is an infrastructure error", func(t *testing.T) {
		finder := &stubFinder{err: errors.NewSearchTimeoutError("organizations")}
		handler := newTestHandler(t, &stubEnrollments{}, finder, nil)

		form := baseForm()
		form["sponsorType"] = "organization"
		form["organizationName"] = "Acme"

		_, err := handler.Execute(context.Background(), &Input{Form: form})
		assert.True(t, errors.HasCode(err, errors.ErrCodeSearchTimeout))
	})
}

// ==========================
// Edge Cases
// ==========================

func TestInput_UnmarshalJSON(t *testing.T) {
	var input Input
	require.NoError(t, json.Unmarshal([]byte(`{"applicationId": "app-1", "trainingSessionId": "sess-1"}`), &input))
	assert.Equal(t, "app-1", input.ApplicationID)
	assert.Equal(t, "sess-1", input.Form["trainingSessionId"])
}

func TestHandler_Execute_NilInput(t *testing.T) {
	handler := newTestHandler(t, &stubEnrollments{}, &stubFinder{}, nil)
	_, err := handler.Execute(context.Background(), &Input{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}
