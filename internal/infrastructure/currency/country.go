// Package currency provides exchange rates, requester geolocation, and retailer currency detection.
package currency

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// ForCountry returns the ISO 4217 currency for an ISO 3166 alpha-2 country code.
// Unknown countries fall back to fallback.
func ForCountry(countryCode, fallback string) string {
	region, err := language.ParseRegion(strings.ToUpper(strings.TrimSpace(countryCode)))
	if err != nil {
		return fallback
	}
	unit, ok := currency.FromRegion(region)
	if !ok {
		return fallback
	}
	return unit.String()
}

// Normalize upper-cases a currency code and validates it against ISO 4217
func Normalize(code string) (string, bool) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", false
	}
	return unit.String(), true
}
