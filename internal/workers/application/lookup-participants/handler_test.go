// internal/workers/application/lookup-participants/handler_test.go
package lookupparticipants

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-admissions/internal/common/errors"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/models"
)

var optionColumns = []string{"id", "name", "email", "citizenship", "enrollment_count"}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHandler(LoadConfig(), db, logger.NewTestLogger(t)), mock
}

func TestHandler_Execute_ListsOptions(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`FROM application_participants ap`).
		WithArgs("sess-1", "%ami%", 20).
		WillReturnRows(sqlmock.NewRows(optionColumns).
			AddRow("p-1", "Amina", "amina@example.com", "citizen", 1).
			AddRow("p-2", "Samir", "samir@example.com", "global", 0))

	out, err := h.Execute(context.Background(), &Input{TrainingSessionID: "sess-1", Query: " ami "})
	require.NoError(t, err)

	require.Len(t, out.Options, 2)
	assert.Equal(t, models.ParticipantOption{
		ID: "p-1", Name: "Amina", Email: "amina@example.com", Tier: models.TierCitizen, EnrollmentCount: 1,
	}, out.Options[0])
	assert.Equal(t, models.TierGlobal, out.Options[1].Tier)
	assert.Equal(t, 1, out.Enrolled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_EmptyResult(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`FROM application_participants ap`).
		WithArgs("sess-1", "%", 20).
		WillReturnRows(sqlmock.NewRows(optionColumns))

	out, err := h.Execute(context.Background(), &Input{TrainingSessionID: "sess-1"})
	require.NoError(t, err)
	assert.NotNil(t, out.Options)
	assert.Empty(t, out.Options)
}

func TestHandler_Limit(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.Equal(t, 20, h.limit(0))
	assert.Equal(t, 20, h.limit(-3))
	assert.Equal(t, 7, h.limit(7))
	assert.Equal(t, 100, h.limit(500))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%%", likePattern(""))
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_off"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}

func TestHandler_Execute_Errors(t *testing.T) {
	t.Run("missing session", func(t *testing.T) {
		h, _ := newTestHandler(t)
		_, err := h.Execute(context.Background(), &Input{Query: "x"})
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	})

	t.Run("query fails", func(t *testing.T) {
		h, mock := newTestHandler(t)
		mock.ExpectQuery(`FROM application_participants`).WillReturnError(stderrors.New("relation missing"))

		_, err := h.Execute(context.Background(), &Input{TrainingSessionID: "sess-1"})
		assert.True(t, errors.HasCode(err, errors.ErrCodeQueryExecutionFailed))
	})

	t.Run("timeout", func(t *testing.T) {
		h, mock := newTestHandler(t)
		mock.ExpectQuery(`FROM application_participants`).WillReturnError(context.DeadlineExceeded)

		_, err := h.Execute(context.Background(), &Input{TrainingSessionID: "sess-1"})
		assert.True(t, errors.HasCode(err, errors.ErrCodeQueryTimeout))
	})

	t.Run("row error", func(t *testing.T) {
		h, mock := newTestHandler(t)
		mock.ExpectQuery(`FROM application_participants`).
			WillReturnRows(sqlmock.NewRows(optionColumns).
				AddRow("p-1", "Amina", "amina@example.com", "citizen", 1).
				RowError(0, stderrors.New("connection lost")))

		_, err := h.Execute(context.Background(), &Input{TrainingSessionID: "sess-1"})
		assert.True(t, errors.HasCode(err, errors.ErrCodeQueryExecutionFailed))
	})
}
