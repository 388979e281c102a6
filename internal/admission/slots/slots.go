// Package slots reconciles explicitly entered per-tier slot counts with
// the itemised participant list of an application.
package slots

import (
	"strings"

	"training-admissions/internal/models"
)

// CountByTier counts participants per citizenship tier. Participants with
// an unknown tier are not counted.
func CountByTier(participants []models.Participant) models.Slots {
	var counts models.Slots
	for _, p := range participants {
		counts = counts.Set(p.Tier, counts.Get(p.Tier)+1)
	}
	return counts
}

// Reconcile returns, per tier, the larger of the explicit count and the
// number of listed participants in that tier. An admin may reserve more
// seats than named participants, and may name more participants than
// were declared; neither case is allowed to under-count.
func Reconcile(explicit models.Slots, participants []models.Participant) models.Slots {
	listed := CountByTier(participants)
	var out models.Slots
	for _, tier := range models.Tiers {
		out = out.Set(tier, max(explicit.Get(tier), listed.Get(tier), 0))
	}
	return out
}

// RemoveParticipant drops the first participant whose email matches and
// decrements that participant's tier by one, floored at zero. The other
// tiers are left as they are so manually raised reservations survive.
// The input slice is not modified.
func RemoveParticipant(current models.Slots, participants []models.Participant, email string) (models.Slots, []models.Participant, bool) {
	idx := indexOf(participants, email)
	if idx < 0 {
		return current, participants, false
	}

	removed := participants[idx]
	rest := make([]models.Participant, 0, len(participants)-1)
	rest = append(rest, participants[:idx]...)
	rest = append(rest, participants[idx+1:]...)

	return current.Set(removed.Tier, max(current.Get(removed.Tier)-1, 0)), rest, true
}

func indexOf(participants []models.Participant, email string) int {
	needle := NormalizeEmail(email)
	if needle == "" {
		return -1
	}
	for i, p := range participants {
		if NormalizeEmail(p.Email) == needle {
			return i
		}
	}
	return -1
}

// NormalizeEmail is the key participants are matched on.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
