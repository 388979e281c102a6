// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"training-admissions/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// InputSchema compiles the input schema of taskType.
func (r *ActivityRegistry) InputSchema(taskType string) (*validation.Schema, error) {
	activity, ok := r.Find(taskType)
	if !ok {
		return nil, fmt.Errorf("activity %s not registered", taskType)
	}
	if !activity.HasInputSchema() {
		return nil, fmt.Errorf("activity %s has no input schema", taskType)
	}
	return validation.CompileSchema(activity.InputSchema)
}

// Validate checks required fields, uniqueness of ids and task types, the
// category, error codes and timeout, and that every declared schema
// compiles.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, activity := range r.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", activity.ID)
		}
		if taskTypes[activity.TaskType] {
			return fmt.Errorf("duplicate task type: %s", activity.TaskType)
		}
		taskTypes[activity.TaskType] = true

		if activity.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", activity.ID)
		}
		if !activity.Category.Known() {
			return fmt.Errorf("activity %s has unknown category %q", activity.ID, activity.Category)
		}
		if unknown := activity.UnknownErrorCodes(); len(unknown) > 0 {
			return fmt.Errorf("activity %s declares unknown error codes %v", activity.ID, unknown)
		}
		if _, err := activity.JobTimeout(); err != nil {
			return err
		}
		if activity.Retries < 0 {
			return fmt.Errorf("activity %s retries must not be negative", activity.ID)
		}
		if activity.HasInputSchema() {
			if _, err := validation.CompileSchema(activity.InputSchema); err != nil {
				return fmt.Errorf("activity %s input schema: %w", activity.ID, err)
			}
		}
		if len(activity.OutputSchema) > 0 {
			if _, err := validation.CompileSchema(activity.OutputSchema); err != nil {
				return fmt.Errorf("activity %s output schema: %w", activity.ID, err)
			}
		}
	}
	return nil
}
