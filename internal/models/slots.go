// internal/models/slots.go
package models

// Slots holds a per-tier participant count.
type Slots struct {
	Citizen     int `json:"slotsCitizen" db:"slots_citizen" validate:"gte=0"`
	EastAfrican int `json:"slotsEastAfrican" db:"slots_east_african" validate:"gte=0"`
	Global      int `json:"slotsGlobal" db:"slots_global" validate:"gte=0"`
}

func (s Slots) Get(tier CitizenshipTier) int {
	switch tier {
	case TierCitizen:
		return s.Citizen
	case TierEastAfrican:
		return s.EastAfrican
	case TierGlobal:
		return s.Global
	}
	return 0
}

// Set returns a copy of s with tier set to n.
func (s Slots) Set(tier CitizenshipTier, n int) Slots {
	switch tier {
	case TierCitizen:
		s.Citizen = n
	case TierEastAfrican:
		s.EastAfrican = n
	case TierGlobal:
		s.Global = n
	}
	return s
}

func (s Slots) Total() int {
	return s.Citizen + s.EastAfrican + s.Global
}
