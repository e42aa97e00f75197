package usecase

import (
	"context"
	"sync"

	"github.com/prebuiltcheck/backend/internal/domain"
)

var usLocale = domain.Locale{CountryCode: "US", Currency: "USD"}

// MockCompleter is a mock implementation of domain.ChatCompleter
type MockCompleter struct {
	mu       sync.Mutex
	respond  func(req domain.ChatRequest) (string, error)
	requests []domain.ChatRequest
}

func NewMockCompleter(respond func(req domain.ChatRequest) (string, error)) *MockCompleter {
	return &MockCompleter{respond: respond}
}

func (m *MockCompleter) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.respond(req)
}

func (m *MockCompleter) callsFor(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.Model == model {
			n++
		}
	}
	return n
}

// MockFetcher is a mock implementation of domain.PageFetcher
type MockFetcher struct {
	page  *domain.SourcePage
	err   error
	calls int
}

func (m *MockFetcher) Fetch(ctx context.Context, rawURL, userAgent string) (*domain.SourcePage, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

// MockSearcher is a mock implementation of domain.RetailSearcher
type MockSearcher struct {
	results map[string][]domain.Listing
	err     error
	queries []domain.SearchQuery
}

func NewMockSearcher() *MockSearcher {
	return &MockSearcher{results: make(map[string][]domain.Listing)}
}

func (m *MockSearcher) Search(ctx context.Context, query domain.SearchQuery) ([]domain.Listing, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.results[query.Text], nil
}

// MockRates is a mock implementation of domain.RateProvider
type MockRates struct {
	rate  float64
	err   error
	calls int
}

func (m *MockRates) Rate(ctx context.Context, from, to string) (float64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.rate, nil
}

// MockGeolocator is a mock implementation of domain.Geolocator
type MockGeolocator struct {
	locale *domain.Locale
	err    error
	lastIP string
}

func (m *MockGeolocator) Locate(ctx context.Context, ip string) (*domain.Locale, error) {
	m.lastIP = ip
	if m.err != nil {
		return nil, m.err
	}
	return m.locale, nil
}

// MockDetector is a mock implementation of domain.CurrencyDetector
type MockDetector struct {
	code string
	err  error
}

func (m *MockDetector) DetectCurrency(ctx context.Context, host string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.code, nil
}

// MockComparisonRepository is a mock implementation of domain.ComparisonRepository
type MockComparisonRepository struct {
	saved   []*domain.ComparisonResult
	saveErr error
}

func (m *MockComparisonRepository) SaveComparison(ctx context.Context, url string, result *domain.ComparisonResult) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, result)
	return nil
}

func (m *MockComparisonRepository) RecentComparisons(ctx context.Context, limit int) ([]domain.StoredComparison, error) {
	var out []domain.StoredComparison
	for _, r := range m.saved {
		out = append(out, domain.StoredComparison{PrebuiltName: r.PrebuiltName})
	}
	return out, nil
}
