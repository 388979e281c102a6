// internal/models/models_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rate(v float64) *float64 { return &v }

func TestSlots_GetSet(t *testing.T) {
	s := Slots{}
	s = s.Set(TierCitizen, 2).Set(TierGlobal, 5)

	assert.Equal(t, 2, s.Get(TierCitizen))
	assert.Equal(t, 0, s.Get(TierEastAfrican))
	assert.Equal(t, 5, s.Get(TierGlobal))
	assert.Equal(t, 7, s.Total())
	assert.Equal(t, 0, s.Get(CitizenshipTier("martian")))
}

func TestDeliveryMode_Offers(t *testing.T) {
	tests := []struct {
		session DeliveryMode
		sub     DeliveryMode
		want    bool
	}{
		{ModeBoth, ModeOnline, true},
		{ModeBoth, ModeOnPremise, true},
		{ModeOnline, ModeOnline, true},
		{ModeOnline, ModeOnPremise, false},
		{ModeOnPremise, ModeOnline, false},
		{ModeBoth, ModeBoth, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.session)+"/"+string(tt.sub), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.Offers(tt.sub))
		})
	}
}

func TestApplicationStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusApproved))
	assert.True(t, StatusPending.CanTransitionTo(StatusRejected))
	assert.True(t, StatusApproved.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusPending.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusPending))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusRejected))
}

func TestPayee_IsEmpty(t *testing.T) {
	var nilPayee *Payee
	assert.True(t, nilPayee.IsEmpty())
	assert.True(t, (&Payee{}).IsEmpty())
	assert.False(t, (&Payee{Name: "Finance Office"}).IsEmpty())
}

func TestFeeRates_Family(t *testing.T) {
	r := FeeRates{UsdCitizenOnlineFee: rate(40)}

	f, ok := r.Family(ModeOnline, CurrencyUSD)
	assert.True(t, ok)
	assert.Equal(t, "usdOnlineFee", f.Name)
	assert.Equal(t, 40.0, *f.Tier(TierCitizen))
	assert.Nil(t, f.Tier(TierGlobal))

	_, ok = r.Family(ModeBoth, CurrencyLocal)
	assert.False(t, ok)
}

func TestValidateSessionRates(t *testing.T) {
	tests := []struct {
		name       string
		session    TrainingSession
		wantFields []string
	}{
		{
			name: "complete on-premise local family",
			session: TrainingSession{Mode: ModeOnPremise, Venue: "Nairobi", Rates: FeeRates{
				CitizenFee: rate(1000), EastAfricaFee: rate(1500), GlobalParticipantFee: rate(2000),
			}},
		},
		{
			name: "partial family",
			session: TrainingSession{Mode: ModeOnPremise, Venue: "Nairobi", Rates: FeeRates{
				CitizenFee: rate(1000),
			}},
			wantFields: []string{"fee"},
		},
		{
			name: "online rates on on-premise session",
			session: TrainingSession{Mode: ModeOnPremise, Venue: "Nairobi", Rates: FeeRates{
				CitizenOnlineFee: rate(1), EastAfricaOnlineFee: rate(1), GlobalParticipantOnlineFee: rate(1),
			}},
			wantFields: []string{"onlineFee"},
		},
		{
			name: "usd rates without usd toggle",
			session: TrainingSession{Mode: ModeOnline, Rates: FeeRates{
				UsdCitizenOnlineFee: rate(1), UsdEastAfricaOnlineFee: rate(1), UsdGlobalParticipantOnlineFee: rate(1),
			}},
			wantFields: []string{"usdOnlineFee"},
		},
		{
			name:       "missing venue",
			session:    TrainingSession{Mode: ModeBoth},
			wantFields: []string{"venue"},
		},
		{
			name:       "venue on online session",
			session:    TrainingSession{Mode: ModeOnline, Venue: "Mombasa"},
			wantFields: []string{"venue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateSessionRates(&tt.session)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestTrainingSession_RemainingSlots(t *testing.T) {
	s := TrainingSession{OnlineCapacity: 30, OnlineSlotsTaken: 12, OnPremiseCapacity: 20, OnPremiseSlotsTaken: 20}
	assert.Equal(t, 18, s.RemainingSlots(ModeOnline))
	assert.Equal(t, 0, s.RemainingSlots(ModeOnPremise))
	assert.Equal(t, 0, s.RemainingSlots(ModeBoth))
}

func TestSubmissionRequest_SentSelectionOverridesForm(t *testing.T) {
	form := `"applicationForm":{"slots":{"slotsCitizen":3},"participants":[{"name":"Amina","email":"amina@example.com","citizenship":"citizen"}]}`

	tests := []struct {
		name       string
		body       string
		wantPeople int
		wantSlots  Slots
	}{
		{"absent falls back to form", `{` + form + `}`, 1, Slots{Citizen: 3}},
		{"null falls back to form", `{` + form + `,"participants":null,"slots":null}`, 1, Slots{Citizen: 3}},
		{"empty list stays empty", `{` + form + `,"participants":[],"slots":{"slotsCitizen":2}}`, 0, Slots{Citizen: 2}},
		{"all zero slots stay zero", `{` + form + `,"participants":[],"slots":{}}`, 0, Slots{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req SubmissionRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Len(t, req.SubmittedParticipants(), tt.wantPeople)
			assert.Equal(t, tt.wantSlots, req.SubmittedSlots())
		})
	}
}
