package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are stored JSON encoded and decoded into dest on Get.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// PageFetcher retrieves product pages from allow-listed retailers
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL, userAgent string) (*SourcePage, error)
}

// ChatCompleter is the text-generation capability used for classification,
// extraction, verification, and currency detection
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// RetailSearcher queries a retailer catalog and returns product cards in listing order
type RetailSearcher interface {
	Search(ctx context.Context, query SearchQuery) ([]Listing, error)
}

// RateProvider returns the multiplicative exchange rate from one currency to another
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// Geolocator resolves a client IP to a country and currency
type Geolocator interface {
	Locate(ctx context.Context, ip string) (*Locale, error)
}

// CurrencyDetector reports the transaction currency used by a retailer host
type CurrencyDetector interface {
	DetectCurrency(ctx context.Context, host string) (string, error)
}

// ComparisonRepository persists finished comparisons
type ComparisonRepository interface {
	SaveComparison(ctx context.Context, url string, result *ComparisonResult) error
	RecentComparisons(ctx context.Context, limit int) ([]StoredComparison, error)
}

// StoredComparison is a persisted comparison row
type StoredComparison struct {
	ID              int64     `json:"id"`
	URL             string    `json:"url"`
	PrebuiltName    string    `json:"prebuilt_name"`
	PrebuiltPrice   float64   `json:"prebuilt_price"`
	TotalPartsPrice float64   `json:"total_parts_price"`
	PriceDifference float64   `json:"price_difference"`
	Parts           string    `json:"parts"`
	CreatedAt       time.Time `json:"created_at"`
}
