package warnings

import (
	"training-admissions/internal/admission/slots"
	"training-admissions/internal/models"
)

// Resolver tracks the warnings raised for one application and how the
// admin resolved them. A duplicate participant is resolved by removing
// them; an organization warning is resolved by acknowledgement only.
type Resolver struct {
	participants []models.Participant
	slots        models.Slots

	participantWarnings []ParticipantWarning
	organization        *OrganizationWarning
	acknowledged        bool
}

// NewResolver reconciles explicit with participants and records the
// warnings found by validation.
func NewResolver(explicit models.Slots, participants []models.Participant, pw []ParticipantWarning, ow *OrganizationWarning) *Resolver {
	return &Resolver{
		participants:        append([]models.Participant(nil), participants...),
		slots:               slots.Reconcile(explicit, participants),
		participantWarnings: append([]ParticipantWarning(nil), pw...),
		organization:        ow,
	}
}

// HasWarning is true while a duplicate participant remains or an
// organization warning is unacknowledged.
func (r *Resolver) HasWarning() bool {
	return len(r.participantWarnings) > 0 || (r.organization != nil && !r.acknowledged)
}

// RemoveParticipant drops the participant with email, decrements their
// tier and clears any duplicate warning for them.
func (r *Resolver) RemoveParticipant(email string) bool {
	next, rest, ok := slots.RemoveParticipant(r.slots, r.participants, email)
	if !ok {
		return false
	}
	r.slots, r.participants = next, rest

	key := slots.NormalizeEmail(email)
	kept := r.participantWarnings[:0]
	for _, w := range r.participantWarnings {
		if slots.NormalizeEmail(w.Email) != key {
			kept = append(kept, w)
		}
	}
	r.participantWarnings = kept
	return true
}

// AcknowledgeOrganization sets the "continue anyway" toggle. It does not
// touch the organization id or name that will be submitted.
func (r *Resolver) AcknowledgeOrganization(ack bool) {
	r.acknowledged = ack
}

func (r *Resolver) OrganizationAcknowledged() bool { return r.acknowledged }

func (r *Resolver) Participants() []models.Participant {
	return append([]models.Participant(nil), r.participants...)
}

func (r *Resolver) Slots() models.Slots { return r.slots }

func (r *Resolver) ParticipantWarnings() []ParticipantWarning {
	return append([]ParticipantWarning(nil), r.participantWarnings...)
}

func (r *Resolver) OrganizationWarning() *OrganizationWarning { return r.organization }
