// Package fees resolves per-tier seat rates for an application and
// computes the application fee from reconciled slot counts.
package fees

import (
	"errors"
	"fmt"

	"training-admissions/internal/models"
)

var (
	ErrModeNotOffered     = errors.New("DELIVERY_MODE_NOT_OFFERED")
	ErrCurrencyNotCharged = errors.New("CURRENCY_NOT_CHARGED")
)

// ResolveRate selects the one rate field that applies to tier for an
// application delivered in mode and billed in currency:
//
//	{on_premise, local} -> citizenFee, eastAfricaFee, globalParticipantFee
//	{online,     local} -> citizenOnlineFee, ...
//	{on_premise, usd}   -> usdCitizenFee, ...
//	{online,     usd}   -> usdCitizenOnlineFee, ...
//
// It returns nil when the field is unset or when mode is not a sub-mode.
func ResolveRate(rates models.FeeRates, mode models.DeliveryMode, currency models.Currency, tier models.CitizenshipTier) *float64 {
	if !mode.IsSubMode() {
		return nil
	}
	if !currency.IsUSD() {
		currency = models.CurrencyLocal
	}
	family, ok := rates.Family(mode, currency)
	if !ok {
		return nil
	}
	return family.Tier(tier)
}

// ResolveMode returns the delivery mode fees are charged under. The mode
// comes from the application, not the session: a session delivered in
// both modes lets the application pick either one.
func ResolveMode(sessionMode, applicationMode models.DeliveryMode) (models.DeliveryMode, error) {
	if !applicationMode.IsSubMode() {
		return "", fmt.Errorf("%w: application mode %q must be online or on_premise", ErrModeNotOffered, applicationMode)
	}
	if !sessionMode.Offers(applicationMode) {
		return "", fmt.Errorf("%w: session is delivered %s, application requested %s", ErrModeNotOffered, sessionMode, applicationMode)
	}
	return applicationMode, nil
}

// ResolveCurrency returns the currency an application is billed in.
// Empty means local. USD is only available on sessions that charge it.
func ResolveCurrency(session *models.TrainingSession, requested models.Currency) (models.Currency, error) {
	switch requested {
	case "", models.CurrencyLocal:
		return models.CurrencyLocal, nil
	case models.CurrencyUSD:
		if !session.UsdCharged {
			return "", fmt.Errorf("%w: session %s does not charge in USD", ErrCurrencyNotCharged, session.ID)
		}
		return models.CurrencyUSD, nil
	default:
		return "", fmt.Errorf("%w: unknown currency %q", ErrCurrencyNotCharged, requested)
	}
}
