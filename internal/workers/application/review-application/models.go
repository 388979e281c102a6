// internal/workers/application/review-application/models.go
package reviewapplication

import "training-admissions/internal/models"

type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
	ActionReopen   Action = "reopen"
)

// Target returns the status an action moves an application to.
func (a Action) Target() (models.ApplicationStatus, bool) {
	switch a {
	case ActionApprove:
		return models.StatusApproved, true
	case ActionReject:
		return models.StatusRejected, true
	case ActionComplete:
		return models.StatusCompleted, true
	case ActionReopen:
		return models.StatusPending, true
	}
	return "", false
}

type Input struct {
	ApplicationID string `json:"applicationId"`
	Action        Action `json:"action"`
	Actor         string `json:"actor,omitempty"`
	Note          string `json:"note,omitempty"`
}

type Output struct {
	ApplicationID     string                   `json:"applicationId"`
	TrainingSessionID string                   `json:"trainingSessionId"`
	PreviousStatus    models.ApplicationStatus `json:"previousStatus"`
	Status            models.ApplicationStatus `json:"status"`
	DeliveryMode      models.DeliveryMode      `json:"deliveryMode"`
	// SeatsChanged is positive when approval took capacity and negative
	// when rejecting an approved application released it.
	SeatsChanged   int `json:"seatsChanged"`
	RemainingSlots int `json:"remainingSlots"`
}
