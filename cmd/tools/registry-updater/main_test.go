package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-admissions/pkg/registry"
)

func useTempRegistry(t *testing.T) {
	prev := registryPath
	registryPath = filepath.Join(t.TempDir(), "configs", "activity-registry.json")
	t.Cleanup(func() { registryPath = prev })
}

func testActivity(id string) *registry.Activity {
	return &registry.Activity{
		ID:          id,
		DisplayName: "Lookup Participants",
		Description: "Lists participants",
		Category:    "lookup",
		Version:     "1.0.0",
		TaskType:    id,
		Timeout:     "5s",
	}
}

func TestAddActivity_CreatesRegistry(t *testing.T) {
	useTempRegistry(t)

	require.NoError(t, addActivity(testActivity("lookup-participants")))

	reg, err := registry.LoadRegistry(registryPath)
	require.NoError(t, err)
	require.Len(t, reg.Activities, 1)
	assert.Equal(t, "lookup-participants", reg.Activities[0].TaskType)
	assert.NotEmpty(t, reg.LastUpdated)
}

func TestAddActivity_RejectsDuplicates(t *testing.T) {
	useTempRegistry(t)
	require.NoError(t, addActivity(testActivity("lookup-participants")))

	assert.ErrorContains(t, addActivity(testActivity("lookup-participants")), "already exists")

	other := testActivity("lookup-people")
	other.TaskType = "lookup-participants"
	assert.ErrorContains(t, addActivity(other), "already registered")
}

func TestUpdateActivity(t *testing.T) {
	useTempRegistry(t)
	require.NoError(t, addActivity(testActivity("lookup-participants")))

	require.NoError(t, updateActivity("lookup-participants", "retries", "2"))
	require.NoError(t, updateActivity("lookup-participants", "status", "completed"))

	reg, err := registry.LoadRegistry(registryPath)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Activities[0].Retries)
	assert.Equal(t, "completed", reg.Activities[0].ImplementationStatus)

	assert.ErrorContains(t, updateActivity("lookup-participants", "retries", "many"), "invalid retries")
	assert.ErrorContains(t, updateActivity("lookup-participants", "timeout", "soon"), "invalid timeout")
	assert.ErrorContains(t, updateActivity("lookup-participants", "category", "crm"), "invalid category")
	assert.ErrorContains(t, updateActivity("lookup-participants", "owner", "x"), "unknown field")
	assert.ErrorContains(t, updateActivity("missing", "status", "x"), "not found")
}

func TestValidateAndList(t *testing.T) {
	useTempRegistry(t)
	require.NoError(t, addActivity(testActivity("lookup-participants")))
	fees := testActivity("calculate-application-fee")
	fees.Category = "fees"
	require.NoError(t, addActivity(fees))

	count, err := validateRegistry()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var buf bytes.Buffer
	require.NoError(t, listActivities(&buf, "fees"))
	assert.Contains(t, buf.String(), "calculate-application-fee")
	assert.NotContains(t, buf.String(), "lookup-participants")

	buf.Reset()
	require.NoError(t, listActivities(&buf, ""))
	assert.Contains(t, buf.String(), "lookup-participants")
}
