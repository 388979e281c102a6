// Package warnings detects the advisory conflicts that block an
// application from advancing until they are resolved: participants
// already enrolled on the same training session, and organization names
// that collide with an existing organization.
package warnings

import (
	"training-admissions/internal/admission/slots"
	"training-admissions/internal/models"
)

// ParticipantWarning flags a participant whose email already appears on
// another application of the same training session.
type ParticipantWarning struct {
	Email                 string `json:"email"`
	Name                  string `json:"name"`
	ExistingApplicationID string `json:"existingApplicationId"`
	TrainingSessionID     string `json:"trainingSessionId"`
}

// DetectDuplicates matches participants against the people already
// enrolled on sessionID. Enrollments belonging to applicationID (the
// application being edited, empty for a new one) are ignored, and each
// email is reported at most once.
func DetectDuplicates(participants []models.Participant, enrolled []models.EnrolledParticipant, sessionID, applicationID string) []ParticipantWarning {
	existing := make(map[string]models.EnrolledParticipant, len(enrolled))
	for _, e := range enrolled {
		if e.TrainingSessionID != sessionID {
			continue
		}
		if applicationID != "" && e.ApplicationID == applicationID {
			continue
		}
		key := slots.NormalizeEmail(e.Email)
		if key == "" {
			continue
		}
		if _, ok := existing[key]; !ok {
			existing[key] = e
		}
	}

	var out []ParticipantWarning
	seen := make(map[string]bool)
	for _, p := range participants {
		key := slots.NormalizeEmail(p.Email)
		if seen[key] {
			continue
		}
		e, ok := existing[key]
		if !ok {
			continue
		}
		seen[key] = true
		out = append(out, ParticipantWarning{
			Email:                 p.Email,
			Name:                  p.Name,
			ExistingApplicationID: e.ApplicationID,
			TrainingSessionID:     sessionID,
		})
	}
	return out
}
