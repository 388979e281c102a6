package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: training-admissions
  version: 1.2.0
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: admissions
    user: ${TEST_DB_USER}
  elasticsearch:
    addresses: ["http://localhost:9200"]
  redis:
    address: localhost:6379
workers:
  submit-application:
    enabled: true
    timeout: 15000
  review-application:
    enabled: false
fees:
  tolerance: 0.5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_DB_USER", "admissions_rw")
	t.Setenv("DB_PASSWORD", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "1.2.0", cfg.App.Version)
	assert.Equal(t, "admissions_rw", cfg.Database.Postgres.User)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())
	assert.Equal(t, 0.5, cfg.Fees.Tolerance)

	// defaults
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "organizations", cfg.Database.Elasticsearch.OrganizationsIndex)
	assert.Equal(t, "admissions", cfg.Database.Redis.KeyPrefix)
	assert.Equal(t, 300000, cfg.Fees.SessionCacheTTL)
	assert.Equal(t, 86400000, cfg.Submission.IdempotencyTTL)
	assert.Equal(t, "configs/activity-registry.json", cfg.Registry.Path)
	assert.Equal(t, ":8080", cfg.Metrics.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_Workers(t *testing.T) {
	t.Setenv("TEST_DB_USER", "admissions_rw")
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	submit := GetWorkerConfig(cfg, "submit-application")
	assert.True(t, submit.Enabled)
	assert.Equal(t, 15000, submit.Timeout)
	assert.Equal(t, 5, submit.MaxJobsActive)
	assert.Equal(t, 3, submit.MaxRetries)

	assert.False(t, IsWorkerEnabled(cfg, "review-application"))
	assert.True(t, IsWorkerEnabled(cfg, "lookup-participants"))
	assert.Equal(t, 30000, GetWorkerConfig(cfg, "lookup-participants").Timeout)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing broker",
			yaml: "database:\n  postgres:\n    host: h\n",
			want: "camunda.broker_address",
		},
		{
			name: "missing redis",
			yaml: `
camunda: {broker_address: b}
database:
  postgres: {host: h, database: d, user: u}
  elasticsearch: {url: "http://es:9200"}
`,
			want: "database.redis.address",
		},
		{
			name: "in-flight ttl longer than idempotency ttl",
			yaml: `
camunda: {broker_address: b}
database:
  postgres: {host: h, database: d, user: u}
  elasticsearch: {url: "http://es:9200"}
  redis: {address: r}
submission: {idempotency_ttl: 1000, in_flight_ttl: 5000}
`,
			want: "in_flight_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_USER", "")
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
