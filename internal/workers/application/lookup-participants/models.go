// internal/workers/application/lookup-participants/models.go
package lookupparticipants

import "training-admissions/internal/models"

type Input struct {
	TrainingSessionID string `json:"trainingSessionId"`
	Query             string `json:"query,omitempty"`
	Limit             int    `json:"limit,omitempty"`
}

type Output struct {
	Options []models.ParticipantOption `json:"options"`
	// Enrolled counts the options already enrolled on the session.
	Enrolled int `json:"enrolled"`
}
