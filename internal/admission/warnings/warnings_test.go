package warnings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-admissions/internal/models"
)

func person(name, email string, tier models.CitizenshipTier) models.Participant {
	return models.Participant{Name: name, Email: email, Tier: tier}
}

// ==========================
// Duplicate detection
// ==========================

func TestDetectDuplicates(t *testing.T) {
	participants := []models.Participant{
		person("Amina", "Amina@Example.com ", models.TierCitizen),
		person("Brian", "brian@example.com", models.TierGlobal),
		person("Chao", "chao@example.com", models.TierEastAfrican),
	}
	enrolled := []models.EnrolledParticipant{
		{ApplicationID: "app-1", TrainingSessionID: "sess-1", Email: "amina@example.com"},
		{ApplicationID: "app-2", TrainingSessionID: "sess-2", Email: "brian@example.com"},
		{ApplicationID: "app-9", TrainingSessionID: "sess-1", Email: "chao@example.com"},
	}

	t.Run("new application", func(t *testing.T) {
		got := DetectDuplicates(participants, enrolled, "sess-1", "")
		require.Len(t, got, 2)
		assert.Equal(t, "Amina@Example.com ", got[0].Email)
		assert.Equal(t, "app-1", got[0].ExistingApplicationID)
		assert.Equal(t, "sess-1", got[0].TrainingSessionID)
		assert.Equal(t, "chao@example.com", got[1].Email)
	})

	t.Run("own enrollments are ignored", func(t *testing.T) {
		got := DetectDuplicates(participants, enrolled, "sess-1", "app-9")
		require.Len(t, got, 1)
		assert.Equal(t, "Amina", got[0].Name)
	})

	t.Run("other sessions are ignored", func(t *testing.T) {
		assert.Empty(t, DetectDuplicates(participants, enrolled, "sess-3", ""))
	})

	t.Run("repeated participant reported once", func(t *testing.T) {
		twice := append(participants, person("Amina again", "amina@example.com", models.TierCitizen))
		assert.Len(t, DetectDuplicates(twice, enrolled, "sess-1", ""), 2)
	})
}

// ==========================
// Organization matching
// ==========================

func TestNormalizeOrganizationName(t *testing.T) {
	tests := map[string]string{
		"Acme Ltd.":             "acme",
		"  ACME   limited ":     "acme",
		"Acme Co. Ltd":          "acme",
		"Kenya Power & Light":   "kenya power light",
		"Ltd":                   "ltd",
		"":                      "",
		"Safari-Tech Solutions": "safari tech solutions",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeOrganizationName(in), in)
	}
}

func TestMatchOrganization(t *testing.T) {
	acme := models.Organization{ID: "org-1", Name: "ACME Limited"}
	acmeLabs := models.Organization{ID: "org-2", Name: "Acme Labs"}

	t.Run("exact match", func(t *testing.T) {
		w := MatchOrganization("Acme Ltd", []models.Organization{acmeLabs, acme})
		require.NotNil(t, w)
		assert.Equal(t, MatchExact, w.Kind)
		require.NotNil(t, w.Exact())
		assert.Equal(t, "org-1", w.Exact().ID)
	})

	t.Run("similar match", func(t *testing.T) {
		w := MatchOrganization("Acme Holdings", []models.Organization{acme, acmeLabs})
		require.NotNil(t, w)
		assert.Equal(t, MatchSimilar, w.Kind)
		assert.Len(t, w.Candidates, 2)
		assert.Nil(t, w.Exact())
	})

	t.Run("no candidates", func(t *testing.T) {
		assert.Nil(t, MatchOrganization("Acme", nil))
	})

	t.Run("blank name", func(t *testing.T) {
		assert.Nil(t, MatchOrganization("  ", []models.Organization{acme}))
	})
}

// ==========================
// Resolver
// ==========================

func TestResolver_OrganizationAcknowledgement(t *testing.T) {
	org := models.Organization{ID: "org-1", Name: "Acme"}
	ow := MatchOrganization("Acme", []models.Organization{org})
	participants := []models.Participant{person("Amina", "amina@example.com", models.TierCitizen)}

	r := NewResolver(models.Slots{Citizen: 1}, participants, nil, ow)
	assert.True(t, r.HasWarning())

	r.AcknowledgeOrganization(true)
	assert.False(t, r.HasWarning())
	assert.True(t, r.OrganizationAcknowledged())

	// Data is left as it was.
	assert.Same(t, ow, r.OrganizationWarning())
	assert.Equal(t, participants, r.Participants())
	assert.Equal(t, models.Slots{Citizen: 1}, r.Slots())

	r.AcknowledgeOrganization(false)
	assert.True(t, r.HasWarning())
}

func TestResolver_RemovingDuplicateClearsWarning(t *testing.T) {
	participants := []models.Participant{
		person("Amina", "amina@example.com", models.TierCitizen),
		person("Brian", "brian@example.com", models.TierCitizen),
		person("Chao", "chao@example.com", models.TierCitizen),
	}
	enrolled := []models.EnrolledParticipant{
		{ApplicationID: "app-1", TrainingSessionID: "sess-1", Email: "brian@example.com"},
	}
	pw := DetectDuplicates(participants, enrolled, "sess-1", "")

	r := NewResolver(models.Slots{Citizen: 1, Global: 2}, participants, pw, nil)
	require.True(t, r.HasWarning())
	assert.Equal(t, 3, r.Slots().Citizen)

	assert.False(t, r.RemoveParticipant("nobody@example.com"))
	assert.True(t, r.HasWarning())

	require.True(t, r.RemoveParticipant("BRIAN@example.com"))
	assert.False(t, r.HasWarning())
	assert.Empty(t, r.ParticipantWarnings())
	assert.Len(t, r.Participants(), 2)
	assert.Equal(t, models.Slots{Citizen: 2, Global: 2}, r.Slots())
}

func TestResolver_BothSourcesMustClear(t *testing.T) {
	participants := []models.Participant{person("Amina", "amina@example.com", models.TierGlobal)}
	pw := []ParticipantWarning{{Email: "amina@example.com", ExistingApplicationID: "app-1"}}
	ow := &OrganizationWarning{Kind: MatchSimilar, Name: "Acme"}

	r := NewResolver(models.Slots{}, participants, pw, ow)
	r.AcknowledgeOrganization(true)
	assert.True(t, r.HasWarning())

	r.RemoveParticipant("amina@example.com")
	assert.False(t, r.HasWarning())
	assert.Equal(t, models.Slots{}, r.Slots())
}

func TestResolver_DoesNotAliasInputs(t *testing.T) {
	participants := []models.Participant{person("Amina", "amina@example.com", models.TierCitizen)}
	pw := []ParticipantWarning{{Email: "amina@example.com"}}

	r := NewResolver(models.Slots{}, participants, pw, nil)
	r.RemoveParticipant("amina@example.com")

	assert.Len(t, participants, 1)
	assert.Equal(t, "amina@example.com", pw[0].Email)
}
