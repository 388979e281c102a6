// internal/workers/application/submit-application/models.go
package submitapplication

import "training-admissions/internal/models"

type Input struct {
	models.SubmissionRequest
	// SubmittedBy is recorded on the audit log.
	SubmittedBy string `json:"submittedBy,omitempty"`
}

type Output struct {
	models.SubmissionResult
}

const (
	MessageSubmitted = "Application submitted successfully"

	// pendingMarker holds a request token while an attempt is running.
	pendingMarker = "pending"

	auditActionSubmitted = "submitted"
)
