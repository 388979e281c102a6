// internal/models/session.go
package models

import (
	"fmt"
	"time"
)

// FeeRates holds the twelve per-seat rates a session may define:
// three tiers for each of on-premise/online in local currency and USD.
// A nil field means the rate is unset.
type FeeRates struct {
	CitizenFee           *float64 `json:"citizenFee,omitempty" db:"citizen_fee"`
	EastAfricaFee        *float64 `json:"eastAfricaFee,omitempty" db:"east_africa_fee"`
	GlobalParticipantFee *float64 `json:"globalParticipantFee,omitempty" db:"global_participant_fee"`

	CitizenOnlineFee           *float64 `json:"citizenOnlineFee,omitempty" db:"citizen_online_fee"`
	EastAfricaOnlineFee        *float64 `json:"eastAfricaOnlineFee,omitempty" db:"east_africa_online_fee"`
	GlobalParticipantOnlineFee *float64 `json:"globalParticipantOnlineFee,omitempty" db:"global_participant_online_fee"`

	UsdCitizenFee           *float64 `json:"usdCitizenFee,omitempty" db:"usd_citizen_fee"`
	UsdEastAfricaFee        *float64 `json:"usdEastAfricaFee,omitempty" db:"usd_east_africa_fee"`
	UsdGlobalParticipantFee *float64 `json:"usdGlobalParticipantFee,omitempty" db:"usd_global_participant_fee"`

	UsdCitizenOnlineFee           *float64 `json:"usdCitizenOnlineFee,omitempty" db:"usd_citizen_online_fee"`
	UsdEastAfricaOnlineFee        *float64 `json:"usdEastAfricaOnlineFee,omitempty" db:"usd_east_africa_online_fee"`
	UsdGlobalParticipantOnlineFee *float64 `json:"usdGlobalParticipantOnlineFee,omitempty" db:"usd_global_participant_online_fee"`
}

// RateFamily is one {mode, currency} group of three tier rates.
type RateFamily struct {
	Name              string
	Mode              DeliveryMode
	Currency          Currency
	Citizen           *float64
	EastAfrica        *float64
	GlobalParticipant *float64
}

// Tier returns the family rate for tier.
func (f RateFamily) Tier(tier CitizenshipTier) *float64 {
	switch tier {
	case TierCitizen:
		return f.Citizen
	case TierEastAfrican:
		return f.EastAfrica
	case TierGlobal:
		return f.GlobalParticipant
	}
	return nil
}

func (f RateFamily) present() int {
	n := 0
	for _, r := range []*float64{f.Citizen, f.EastAfrica, f.GlobalParticipant} {
		if r != nil {
			n++
		}
	}
	return n
}

// Families lists the four rate families in a fixed order.
func (r FeeRates) Families() []RateFamily {
	return []RateFamily{
		{Name: "fee", Mode: ModeOnPremise, Currency: CurrencyLocal,
			Citizen: r.CitizenFee, EastAfrica: r.EastAfricaFee, GlobalParticipant: r.GlobalParticipantFee},
		{Name: "onlineFee", Mode: ModeOnline, Currency: CurrencyLocal,
			Citizen: r.CitizenOnlineFee, EastAfrica: r.EastAfricaOnlineFee, GlobalParticipant: r.GlobalParticipantOnlineFee},
		{Name: "usdFee", Mode: ModeOnPremise, Currency: CurrencyUSD,
			Citizen: r.UsdCitizenFee, EastAfrica: r.UsdEastAfricaFee, GlobalParticipant: r.UsdGlobalParticipantFee},
		{Name: "usdOnlineFee", Mode: ModeOnline, Currency: CurrencyUSD,
			Citizen: r.UsdCitizenOnlineFee, EastAfrica: r.UsdEastAfricaOnlineFee, GlobalParticipant: r.UsdGlobalParticipantOnlineFee},
	}
}

// Family returns the rate family for a concrete {mode, currency} pair.
func (r FeeRates) Family(mode DeliveryMode, currency Currency) (RateFamily, bool) {
	for _, f := range r.Families() {
		if f.Mode == mode && f.Currency == currency {
			return f, true
		}
	}
	return RateFamily{}, false
}

type TrainingSession struct {
	ID                  string       `json:"id" db:"id"`
	ProgramID           string       `json:"programId" db:"program_id"`
	StartDate           time.Time    `json:"startDate" db:"start_date"`
	EndDate             time.Time    `json:"endDate" db:"end_date"`
	Mode                DeliveryMode `json:"mode" db:"mode"`
	Venue               string       `json:"venue,omitempty" db:"venue"`
	OnPremiseCapacity   int          `json:"onPremiseSlots" db:"on_premise_slots"`
	OnlineCapacity      int          `json:"onlineSlots" db:"online_slots"`
	OnPremiseSlotsTaken int          `json:"onPremiseSlotsTaken" db:"on_premise_slots_taken"`
	OnlineSlotsTaken    int          `json:"onlineSlotsTaken" db:"online_slots_taken"`
	UsdCharged          bool         `json:"usdCharged" db:"usd_charged"`
	Rates               FeeRates     `json:"rates"`
}

// RemainingSlots returns the free capacity for a sub-mode.
func (s *TrainingSession) RemainingSlots(mode DeliveryMode) int {
	switch mode {
	case ModeOnline:
		return s.OnlineCapacity - s.OnlineSlotsTaken
	case ModeOnPremise:
		return s.OnPremiseCapacity - s.OnPremiseSlotsTaken
	}
	return 0
}

// TrainingSessionView is the typed projection returned by the session
// query: the session plus the program columns joined onto it.
type TrainingSessionView struct {
	TrainingSession
	ProgramTitle string `json:"programTitle" db:"program_title"`
	ProgramCode  string `json:"programCode" db:"program_code"`
}

// FieldError is a field-scoped invariant violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateSessionRates checks that every rate family is either fully set
// or fully unset, and that the set families agree with the session's
// delivery mode and USD toggle.
func ValidateSessionRates(s *TrainingSession) []FieldError {
	var errs []FieldError
	for _, f := range s.Rates.Families() {
		n := f.present()
		if n == 0 {
			continue
		}
		if n != len(Tiers) {
			errs = append(errs, FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("%s rates must be set for all tiers or none (%d of %d set)", f.Name, n, len(Tiers)),
			})
		}
		if !s.Mode.Offers(f.Mode) {
			errs = append(errs, FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("%s rates are set but the session is not delivered %s", f.Name, f.Mode),
			})
		}
		if f.Currency.IsUSD() && !s.UsdCharged {
			errs = append(errs, FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("%s rates are set but the session does not charge in USD", f.Name),
			})
		}
	}
	if s.Mode == ModeOnPremise || s.Mode == ModeBoth {
		if s.Venue == "" {
			errs = append(errs, FieldError{Field: "venue", Message: "venue is required for on-premise delivery"})
		}
	} else if s.Venue != "" {
		errs = append(errs, FieldError{Field: "venue", Message: "venue only applies to on-premise delivery"})
	}
	return errs
}
