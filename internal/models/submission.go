// internal/models/submission.go
package models

// SubmissionRequest is what the wizard sends to the submission worker.
// RequestToken is generated once per wizard and resent on every attempt
// so a retried submission is recognised and not stored twice.
type SubmissionRequest struct {
	RequestToken    string          `json:"requestToken" validate:"required,uuid"`
	ApplicationForm ApplicationForm `json:"applicationForm"`
	ApplicationFee  float64         `json:"applicationFee" validate:"gte=0"`
	Currency        Currency        `json:"currency" validate:"omitempty,oneof=local usd"`
	OrganizationID  *string         `json:"organizationId,omitempty"`
	Participants    *[]Participant  `json:"participants,omitempty" validate:"omitempty,dive"`
	Slots           *Slots          `json:"slots,omitempty"`
	Payee           *Payee          `json:"payee,omitempty"`
}

// SubmittedParticipants is the participant list as sent. The form's list
// is used only when the request carries none; an empty list that was sent
// stays empty.
func (r *SubmissionRequest) SubmittedParticipants() []Participant {
	if r.Participants == nil {
		return r.ApplicationForm.Participants
	}
	return *r.Participants
}

// SubmittedSlots is the explicit slot count as sent, falling back to the
// form's only when absent.
func (r *SubmissionRequest) SubmittedSlots() Slots {
	if r.Slots == nil {
		return r.ApplicationForm.Slots
	}
	return *r.Slots
}

type SubmissionKind string

const (
	SubmissionSuccess SubmissionKind = "success"
	SubmissionError   SubmissionKind = "error"
)

// SubmissionResult is either {kind:"success", success, applicationId} or
// {kind:"error", error}.
type SubmissionResult struct {
	Kind          SubmissionKind `json:"kind"`
	Success       string         `json:"success,omitempty"`
	ApplicationID string         `json:"applicationId,omitempty"`
	Error         string         `json:"error,omitempty"`
	// Replayed is set when the request token had already been processed.
	Replayed bool `json:"replayed,omitempty"`
}

func SubmissionSucceeded(applicationID, message string) SubmissionResult {
	return SubmissionResult{Kind: SubmissionSuccess, Success: message, ApplicationID: applicationID}
}

func SubmissionFailed(message string) SubmissionResult {
	return SubmissionResult{Kind: SubmissionError, Error: message}
}
