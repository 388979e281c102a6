// internal/workers/application/validate-application/models.go
package validateapplication

import (
	"encoding/json"

	"training-admissions/internal/admission/warnings"
	"training-admissions/internal/models"
)

// Input is the raw application form. ApplicationID is set when an
// existing application is being edited so its own enrollments are not
// reported as duplicates.
type Input struct {
	ApplicationID string
	Form          map[string]interface{}
}

func (in *Input) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["applicationId"].(string); ok {
		in.ApplicationID = id
	}
	in.Form = raw
	return nil
}

type Kind string

const (
	KindValid   Kind = "valid"
	KindInvalid Kind = "invalid"
)

// Output is {kind:"valid", data, applicationTrainingSession,
// participantWarnings, organizationError?, organizationSuccess?} or
// {kind:"invalid", error, formErrors?}.
type Output struct {
	Kind Kind `json:"kind"`

	Data                       *models.ApplicationForm       `json:"data,omitempty"`
	ApplicationTrainingSession *models.TrainingSessionView   `json:"applicationTrainingSession,omitempty"`
	ParticipantWarnings        []warnings.ParticipantWarning `json:"participantWarnings,omitempty"`
	OrganizationError          *warnings.OrganizationWarning `json:"organizationError,omitempty"`
	OrganizationSuccess        string                        `json:"organizationSuccess,omitempty"`
	HasWarning                 bool                          `json:"hasWarning"`

	Error      string              `json:"error,omitempty"`
	FormErrors map[string][]string `json:"formErrors,omitempty"`
}

func (o *Output) Valid() bool { return o.Kind == KindValid }

const (
	MessageInvalidForm     = "The application form has errors"
	MessageSessionNotFound = "The selected training session does not exist"
)
