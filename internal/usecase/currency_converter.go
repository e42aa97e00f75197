package usecase

import (
	"context"
	"math"
	"strings"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// CurrencyConverter resolves requester and store currencies and converts prices between them.
// Every lookup degrades to a default instead of failing the request.
type CurrencyConverter struct {
	rates    domain.RateProvider
	geo      domain.Geolocator
	detector domain.CurrencyDetector
	fallback domain.Locale
	log      logrus.FieldLogger
}

// NewCurrencyConverter creates a converter. Any collaborator may be nil.
// fallback is the locale assumed when a lookup fails; it defaults to US/USD.
func NewCurrencyConverter(
	rates domain.RateProvider,
	geo domain.Geolocator,
	detector domain.CurrencyDetector,
	fallback domain.Locale,
	log logrus.FieldLogger,
) *CurrencyConverter {
	if fallback.CountryCode == "" {
		fallback.CountryCode = "US"
	}
	if fallback.Currency == "" {
		fallback.Currency = "USD"
	}
	fallback.CountryCode = strings.ToUpper(fallback.CountryCode)
	fallback.Currency = strings.ToUpper(fallback.Currency)

	return &CurrencyConverter{
		rates:    rates,
		geo:      geo,
		detector: detector,
		fallback: fallback,
		log:      log.WithField("component", "currency"),
	}
}

// RequesterLocale returns the country and currency the client IP resolves to,
// or the fallback locale when geolocation is unavailable
func (c *CurrencyConverter) RequesterLocale(ctx context.Context, clientIP string) domain.Locale {
	if c.geo == nil {
		return c.fallback
	}
	locale, err := c.geo.Locate(ctx, clientIP)
	if err != nil || locale == nil || locale.Currency == "" {
		c.log.WithError(err).WithFields(logrus.Fields{
			"ip":      clientIP,
			"country": c.fallback.CountryCode,
		}).Warn("could not resolve requester locale, using default")
		return c.fallback
	}
	return *locale
}

// RequesterCurrency returns the currency of the country the client IP resolves to
func (c *CurrencyConverter) RequesterCurrency(ctx context.Context, clientIP string) string {
	return c.RequesterLocale(ctx, clientIP).Currency
}

// StoreCurrency returns the transaction currency of a retailer host
func (c *CurrencyConverter) StoreCurrency(ctx context.Context, host string) string {
	if c.detector == nil {
		return c.fallback.Currency
	}
	code, err := c.detector.DetectCurrency(ctx, host)
	if err != nil || code == "" {
		c.log.WithError(err).WithField("host", host).Warn("could not detect store currency, using default")
		return c.fallback.Currency
	}
	return strings.ToUpper(code)
}

// Convert converts amount from one currency to another, rounded to cents.
// The amount passes through unchanged when the currencies match, either is unknown, or the rate lookup fails.
func (c *CurrencyConverter) Convert(ctx context.Context, amount float64, from, to string) float64 {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == "" || to == "" || from == to || c.rates == nil {
		return amount
	}

	rate, err := c.rates.Rate(ctx, from, to)
	if err != nil || rate <= 0 {
		c.log.WithError(err).WithFields(logrus.Fields{"from": from, "to": to}).Warn("exchange rate unavailable, leaving amount unconverted")
		return amount
	}
	return roundCents(amount * rate)
}

// roundCents rounds to the currency minor unit
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
