// internal/workers/application/lookup-organizations/handler_test.go
package lookuporganizations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"training-admissions/internal/admission/organizations"
	"training-admissions/internal/common/errors"
	"training-admissions/internal/common/logger"
	"training-admissions/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) Search(ctx context.Context, name string, limit int) ([]models.Organization, error) {
	args := m.Called(ctx, name, limit)
	orgs, _ := args.Get(0).([]models.Organization)
	return orgs, args.Error(1)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		limit     int
		wantLimit int
		found     []models.Organization
		wantExact string
	}{
		{
			name:      "exact match ignores legal suffix",
			query:     "acme",
			wantLimit: 10,
			found: []models.Organization{
				{ID: "org-2", Name: "Acme Holdings"},
				{ID: "org-1", Name: "ACME Ltd."},
			},
			wantExact: "org-1",
		},
		{
			name:      "similar only",
			query:     "Acme Training",
			limit:     3,
			wantLimit: 3,
			found:     []models.Organization{{ID: "org-2", Name: "Acme Holdings"}},
		},
		{
			name:      "nothing found",
			query:     "Zebra",
			wantLimit: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := new(mockFinder)
			finder.On("Search", mock.Anything, tt.query, tt.wantLimit).Return(tt.found, nil).Once()

			h := NewHandler(LoadConfig(), finder, logger.NewTestLogger(t))
			out, err := h.Execute(context.Background(), &Input{Query: tt.query, Limit: tt.limit})
			require.NoError(t, err)

			assert.NotNil(t, out.Options)
			assert.Len(t, out.Options, len(tt.found))
			assert.Equal(t, tt.wantExact, out.ExactMatchID)
			finder.AssertExpectations(t)
		})
	}
}

func TestHandler_Execute_SearchError(t *testing.T) {
	finder := new(mockFinder)
	finder.On("Search", mock.Anything, "acme", 10).
		Return(nil, errors.NewSearchTimeoutError("organizations")).Once()

	h := NewHandler(LoadConfig(), finder, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{Query: "acme"})
	assert.Nil(t, out)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchTimeout))
}

func TestHandler_Execute_NilInput(t *testing.T) {
	h := NewHandler(LoadConfig(), new(mockFinder), logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
}

// ==========================
// Integration Tests
// ==========================

func TestHandler_Execute_WithElasticsearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits": {"hits": [
			{"_id": "org-7", "_score": 4.0, "_source": {"name": "Kilimo Cooperative"}}
		]}}`))
	}))
	defer srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	h := NewHandler(LoadConfig(), organizations.NewSearcher(client, "organizations"), logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{Query: "kilimo cooperative"})
	require.NoError(t, err)
	require.Len(t, out.Options, 1)
	assert.Equal(t, "org-7", out.Options[0].ID)
	assert.Equal(t, "org-7", out.ExactMatchID)
}
