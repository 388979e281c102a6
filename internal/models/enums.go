// internal/models/enums.go
package models

// CitizenshipTier classifies a participant for fee purposes.
type CitizenshipTier string

const (
	TierCitizen     CitizenshipTier = "citizen"
	TierEastAfrican CitizenshipTier = "east_african"
	TierGlobal      CitizenshipTier = "global"
)

// Tiers is the fixed iteration order for every per-tier computation.
var Tiers = []CitizenshipTier{TierCitizen, TierEastAfrican, TierGlobal}

func (t CitizenshipTier) Valid() bool {
	switch t {
	case TierCitizen, TierEastAfrican, TierGlobal:
		return true
	}
	return false
}

// DeliveryMode is how a session is delivered. Sessions may be "both";
// applications always pick one of the two sub-modes.
type DeliveryMode string

const (
	ModeOnline    DeliveryMode = "online"
	ModeOnPremise DeliveryMode = "on_premise"
	ModeBoth      DeliveryMode = "both"
)

func (m DeliveryMode) Valid() bool {
	switch m {
	case ModeOnline, ModeOnPremise, ModeBoth:
		return true
	}
	return false
}

// IsSubMode reports whether m is a concrete mode an application can carry.
func (m DeliveryMode) IsSubMode() bool {
	return m == ModeOnline || m == ModeOnPremise
}

// Offers reports whether a session delivered in m can host an application in sub.
func (m DeliveryMode) Offers(sub DeliveryMode) bool {
	if !sub.IsSubMode() {
		return false
	}
	return m == ModeBoth || m == sub
}

type Currency string

const (
	CurrencyLocal Currency = "local"
	CurrencyUSD   Currency = "usd"
)

func (c Currency) IsUSD() bool {
	return c == CurrencyUSD
}

func (c Currency) Valid() bool {
	return c == CurrencyLocal || c == CurrencyUSD
}

type SponsorType string

const (
	SponsorSelf         SponsorType = "self_sponsored"
	SponsorOrganization SponsorType = "organization"
)

type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
	StatusCompleted ApplicationStatus = "completed"
)

// CanTransitionTo encodes the admin review lifecycle. Completed is terminal.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusCompleted || next == StatusRejected
	case StatusRejected:
		return next == StatusPending
	default:
		return false
	}
}
