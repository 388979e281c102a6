// internal/models/application.go
package models

import "time"

type Application struct {
	ID                string            `json:"id" db:"id"`
	TrainingSessionID string            `json:"trainingSessionId" db:"training_session_id"`
	SponsorType       SponsorType       `json:"sponsorType" db:"sponsor_type"`
	DeliveryMode      DeliveryMode      `json:"deliveryMode" db:"delivery_mode"`
	OrganizationID    *string           `json:"organizationId,omitempty" db:"organization_id"`
	Participants      []Participant     `json:"participants"`
	Slots             Slots             `json:"slots"`
	Fee               *float64          `json:"applicationFee,omitempty" db:"fee"`
	Currency          Currency          `json:"currency" db:"currency"`
	Status            ApplicationStatus `json:"status" db:"status"`
	RequestToken      string            `json:"requestToken" db:"request_token"`
	CreatedAt         time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time         `json:"updatedAt" db:"updated_at"`
}

// IsImmutable reports whether the application can no longer be changed.
func (a *Application) IsImmutable() bool {
	return a.Status == StatusCompleted
}

// ApplicationForm is the raw form an applicant or admin fills in before
// validation. Slot counts are the explicitly entered ones.
type ApplicationForm struct {
	TrainingSessionID string        `json:"trainingSessionId" validate:"required"`
	SponsorType       SponsorType   `json:"sponsorType" validate:"required,oneof=self_sponsored organization"`
	DeliveryMode      DeliveryMode  `json:"deliveryMode" validate:"required,oneof=online on_premise"`
	Currency          Currency      `json:"currency" validate:"omitempty,oneof=local usd"`
	OrganizationID    *string       `json:"organizationId,omitempty"`
	OrganizationName  string        `json:"organizationName,omitempty" validate:"max=200"`
	Slots             Slots         `json:"slots"`
	Participants      []Participant `json:"participants" validate:"dive"`
}

// Payee is the billing contact captured at submission time for invoicing.
// It travels with the submission and is never stored as its own entity.
type Payee struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,min=7,max=20"`
	Address string `json:"address,omitempty" validate:"max=300"`
}

func (p *Payee) IsEmpty() bool {
	return p == nil || (p.Name == "" && p.Email == "" && p.Phone == "")
}
