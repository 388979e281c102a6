// internal/models/participant.go
package models

type Participant struct {
	ID         string          `json:"id,omitempty" db:"id"`
	Name       string          `json:"name" db:"name" validate:"required,max=200"`
	Email      string          `json:"email" db:"email" validate:"required,email"`
	Tier       CitizenshipTier `json:"citizenship" db:"citizenship" validate:"required,oneof=citizen east_african global"`
	NationalID string          `json:"nationalId" db:"national_id" validate:"max=50"`
	IsOwner    bool            `json:"isOwner" db:"is_owner"`
	UserID     *string         `json:"userId,omitempty" db:"user_id"`
}

// EnrolledParticipant is a participant already attached to some
// application of a training session.
type EnrolledParticipant struct {
	ApplicationID     string `json:"applicationId" db:"application_id"`
	TrainingSessionID string `json:"trainingSessionId" db:"training_session_id"`
	Name              string `json:"name" db:"name"`
	Email             string `json:"email" db:"email"`
}

// ParticipantOption is one entry of the participant lookup list.
type ParticipantOption struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Tier            CitizenshipTier `json:"citizenship"`
	EnrollmentCount int             `json:"enrollmentCount"`
}
