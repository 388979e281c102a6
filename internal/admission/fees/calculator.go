package fees

import "training-admissions/internal/models"

// Calculate returns Σ slots[tier] × rate(tier, mode, currency). The
// second return value is false when any tier with a nonzero slot count
// has no rate; the fee is then undefined and cannot be confirmed yet.
// Tiers with zero slots contribute nothing whether or not a rate exists.
func Calculate(slots models.Slots, rates models.FeeRates, mode models.DeliveryMode, currency models.Currency) (float64, bool) {
	var total float64
	for _, tier := range models.Tiers {
		count := slots.Get(tier)
		if count == 0 {
			continue
		}
		rate := ResolveRate(rates, mode, currency, tier)
		if rate == nil {
			return 0, false
		}
		total += float64(count) * *rate
	}
	return total, true
}

// FeeSnapshot is the rate selection and total for one {mode, currency}
// pair. It is recomputed whenever slots, mode or currency change.
type FeeSnapshot struct {
	Mode     models.DeliveryMode                 `json:"mode"`
	Currency models.Currency                     `json:"currency"`
	Slots    models.Slots                        `json:"slots"`
	Rates    map[models.CitizenshipTier]*float64 `json:"rates"`
	Lines    []Line                              `json:"lines"`
	Missing  []models.CitizenshipTier            `json:"missingRates,omitempty"`
	Total    *float64                            `json:"applicationFee"`
}

// Line is one tier's contribution to the total.
type Line struct {
	Tier     models.CitizenshipTier `json:"citizenship"`
	Count    int                    `json:"count"`
	Rate     float64                `json:"rate"`
	Subtotal float64                `json:"subtotal"`
}

// NewSnapshot resolves every tier's rate and computes the total. Total is
// nil when the calculation is incomplete; Missing names the tiers that
// need a rate.
func NewSnapshot(slots models.Slots, rates models.FeeRates, mode models.DeliveryMode, currency models.Currency) FeeSnapshot {
	snap := FeeSnapshot{
		Mode:     mode,
		Currency: currency,
		Slots:    slots,
		Rates:    make(map[models.CitizenshipTier]*float64, len(models.Tiers)),
	}
	for _, tier := range models.Tiers {
		rate := ResolveRate(rates, mode, currency, tier)
		snap.Rates[tier] = rate
		count := slots.Get(tier)
		if count == 0 {
			continue
		}
		if rate == nil {
			snap.Missing = append(snap.Missing, tier)
			continue
		}
		snap.Lines = append(snap.Lines, Line{Tier: tier, Count: count, Rate: *rate, Subtotal: float64(count) * *rate})
	}
	if total, ok := Calculate(slots, rates, mode, currency); ok {
		snap.Total = &total
	}
	return snap
}

// Confirmable reports whether the fee can be confirmed.
func (s FeeSnapshot) Confirmable() bool {
	return s.Total != nil
}
