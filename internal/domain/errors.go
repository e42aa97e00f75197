package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the submitted URL is missing or empty
	ErrInvalidInput = errors.New("URL is required")

	// ErrUnsupportedDomain is returned when the URL host is not an allow-listed retailer
	ErrUnsupportedDomain = errors.New("unsupported retailer domain")

	// ErrFetchFailed is returned when the product page cannot be retrieved
	ErrFetchFailed = errors.New("failed to fetch page content")

	// ErrClassificationRejected is returned when the page is not judged to be a prebuilt desktop
	ErrClassificationRejected = errors.New("page does not describe a prebuilt desktop")

	// ErrClassifierUnavailable marks a rejection caused by the classifier failing rather than answering "no".
	// It is always wrapped together with ErrClassificationRejected.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrExtractionFailed is returned when the text-generation capability could not be reached
	ErrExtractionFailed = errors.New("component extraction failed")

	// ErrInvalidExtraction is returned when extraction produced no usable name, price, or parts
	ErrInvalidExtraction = errors.New("extraction yielded no valid prebuilt name, price, or parts")

	// ErrPartNotFound is returned when no verified listing matches a component
	ErrPartNotFound = errors.New("no verified retail listing for component")

	// ErrConversionFailed is returned when an exchange rate cannot be retrieved
	ErrConversionFailed = errors.New("exchange rate lookup failed")

	// ErrRetailerFailure is returned when the retailer search request fails
	ErrRetailerFailure = errors.New("retailer search request failed")

	// ErrLLMFailure is returned when a text-generation request fails
	ErrLLMFailure = errors.New("text generation request failed")

	// ErrGeoLookupFailed is returned when the requester location cannot be resolved
	ErrGeoLookupFailed = errors.New("geolocation lookup failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

// FetchError describes a failed page fetch. StatusCode is set for non-2xx
// responses; Message holds the transport error otherwise.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status code %d", ErrFetchFailed, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", ErrFetchFailed, e.Message)
}

// Unwrap lets errors.Is match ErrFetchFailed
func (e *FetchError) Unwrap() error {
	return ErrFetchFailed
}
