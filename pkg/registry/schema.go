// pkg/registry/schema.go
package registry

import (
	"fmt"
	"time"

	"training-admissions/internal/common/errors"
)

// Category groups admission activities in the registry and the modeler
// palette.
type Category string

const (
	CategoryApplication Category = "application"
	CategoryFees        Category = "fees"
	CategoryLookup      Category = "lookup"
)

var categories = map[Category]bool{
	CategoryApplication: true,
	CategoryFees:        true,
	CategoryLookup:      true,
}

func (c Category) Known() bool { return categories[c] }

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one job worker: its task type, the variables it
// reads and writes, and the error codes it may throw to the process.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             Category               `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []errors.ErrorCode     `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}

// HasInputSchema reports whether the activity declares a non-empty input schema.
func (a Activity) HasInputSchema() bool {
	return len(a.InputSchema) > 0
}

// JobTimeout parses Timeout. Zero means none was declared.
func (a Activity) JobTimeout() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("activity %s timeout: %w", a.ID, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("activity %s timeout must be positive, got %s", a.ID, a.Timeout)
	}
	return d, nil
}

// UnknownErrorCodes lists declared codes that no boundary event can catch
// because they have no BPMN mapping.
func (a Activity) UnknownErrorCodes() []errors.ErrorCode {
	var unknown []errors.ErrorCode
	for _, code := range a.ErrorCodes {
		if _, ok := errors.BPMNErrorMapping[code]; !ok {
			unknown = append(unknown, code)
		}
	}
	return unknown
}
