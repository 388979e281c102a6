// internal/workers/application/calculate-application-fee/models.go
package calculateapplicationfee

import (
	"training-admissions/internal/admission/fees"
	"training-admissions/internal/models"
)

type Input struct {
	TrainingSessionID string               `json:"trainingSessionId"`
	DeliveryMode      models.DeliveryMode  `json:"deliveryMode"`
	Currency          models.Currency      `json:"currency"`
	Slots             models.Slots         `json:"slots"`
	Participants      []models.Participant `json:"participants"`
}

// Output carries the snapshot plus its total at the top level so a
// process can gate on applicationFee without unpacking the snapshot.
type Output struct {
	FeeSnapshot    fees.FeeSnapshot `json:"feeSnapshot"`
	FeeConfirmable bool             `json:"feeConfirmable"`
	ApplicationFee *float64         `json:"applicationFee"`
}

const (
	OutcomeComplete   = "complete"
	OutcomeIncomplete = "incomplete"
)
