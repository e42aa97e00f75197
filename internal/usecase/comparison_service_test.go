package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/prebuiltcheck/backend/internal/logging"
)

const bestBuyPage = `<html><body>
<h1>Skytech Azure Gaming PC</h1>
<div class="priceView-customer-price"><span>$2,499.99</span></div>
<div class="specs"><ul>
  <li>CPU: Intel Core i9-13900K</li>
  <li>GPU: NVIDIA GeForce RTX 4080 16GB</li>
</ul></div>
</body></html>`

// pipelineFixture wires a ComparisonService over mocks
type pipelineFixture struct {
	fetcher   *MockFetcher
	completer *MockCompleter
	searcher  *MockSearcher
	repo      *MockComparisonRepository
	service   *ComparisonService

	classifyAnswer string
	extractAnswer  string
	cleanupAnswer  string
	extractErr     error
}

func newPipelineFixture(cleanup bool) *pipelineFixture {
	f := &pipelineFixture{
		fetcher: &MockFetcher{page: &domain.SourcePage{
			URL:  "https://www.bestbuy.ca/valid-prebuilt-page",
			Host: "www.bestbuy.ca",
			Body: bestBuyPage,
		}},
		searcher:       NewMockSearcher(),
		repo:           &MockComparisonRepository{},
		classifyAnswer: "yes",
		extractAnswer:  "Prebuilt Name: Skytech Azure\nCPU: Intel Core i9-13900K\nGPU: NVIDIA GeForce RTX 4080 16GB",
	}
	f.completer = NewMockCompleter(func(req domain.ChatRequest) (string, error) {
		switch req.Model {
		case "classify":
			return f.classifyAnswer, nil
		case "extract":
			return f.extractAnswer, f.extractErr
		case "cleanup":
			return f.cleanupAnswer, nil
		default:
			return "yes", nil
		}
	})

	log := logging.Discard()
	f.service = NewComparisonService(Stages{
		Fetcher:    f.fetcher,
		Classifier: NewPrebuiltClassifier(f.completer, "classify", log),
		Content:    NewContentExtractor(nil, log),
		Components: NewComponentExtractor(f.completer, ComponentExtractorConfig{
			ExtractModel:      "extract",
			CleanupModel:      "cleanup",
			EnableCleanupPass: cleanup,
		}, log),
		Resolver: NewPriceResolver(
			f.searcher,
			f.completer,
			NewMatchingService(MatchConfig{FeatureThreshold: 0.5}, log),
			NewQueryPreprocessor(false, false, log),
			nil,
			PriceResolverConfig{VerifyModel: "verify", RetailerCurrency: "CAD"},
			log,
		),
		Repository: f.repo,
	}, log)
	return f
}

func TestCompare_Success(t *testing.T) {
	f := newPipelineFixture(false)
	f.searcher.results["Intel Core i9-13900K"] = []domain.Listing{
		{Title: "Intel Core i9-13900K Desktop Processor", PriceText: "$589.99", Link: "https://www.newegg.ca/p/cpu"},
	}

	result, err := f.service.Compare(context.Background(), &domain.CompareRequest{URL: " https://www.bestbuy.ca/valid-prebuilt-page "})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if result.PrebuiltName != "Skytech Azure" {
		t.Errorf("PrebuiltName = %q, want Skytech Azure", result.PrebuiltName)
	}
	if result.PrebuiltPrice != 2499.99 {
		t.Errorf("PrebuiltPrice = %v, want 2499.99", result.PrebuiltPrice)
	}
	if len(result.Parts) != 1 || result.Parts[0].Price != 589.99 || result.Parts[0].Type != "Intel Core i9-13900K" {
		t.Fatalf("Parts = %+v, want the CPU at 589.99", result.Parts)
	}
	if result.TotalPartsPrice != 589.99 {
		t.Errorf("TotalPartsPrice = %v, want 589.99", result.TotalPartsPrice)
	}
	if result.PriceDifference != 1910 {
		t.Errorf("PriceDifference = %v, want 1910", result.PriceDifference)
	}

	// the GPU lookup missed but was attempted
	if len(f.searcher.queries) != 2 {
		t.Errorf("searches = %d, want 2", len(f.searcher.queries))
	}
	if len(f.repo.saved) != 1 {
		t.Errorf("saved comparisons = %d, want 1", len(f.repo.saved))
	}
}

func TestCompare_Failures(t *testing.T) {
	ctx := context.Background()
	validURL := &domain.CompareRequest{URL: "https://www.bestbuy.ca/valid-prebuilt-page"}

	t.Run("missing URL", func(t *testing.T) {
		f := newPipelineFixture(false)
		_, err := f.service.Compare(ctx, &domain.CompareRequest{URL: "   "})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
		if f.fetcher.calls != 0 {
			t.Errorf("fetch calls = %d, want 0", f.fetcher.calls)
		}
	})

	t.Run("nil request", func(t *testing.T) {
		_, err := newPipelineFixture(false).service.Compare(ctx, nil)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		f := newPipelineFixture(false)
		f.fetcher.err = domain.ErrUnsupportedDomain
		_, err := f.service.Compare(ctx, &domain.CompareRequest{URL: "https://example.com/pc"})
		if !errors.Is(err, domain.ErrUnsupportedDomain) {
			t.Errorf("error = %v, want ErrUnsupportedDomain", err)
		}
		if len(f.completer.requests) != 0 {
			t.Errorf("model calls = %d, want 0", len(f.completer.requests))
		}
	})

	t.Run("classifier says no", func(t *testing.T) {
		f := newPipelineFixture(false)
		f.classifyAnswer = "no"
		_, err := f.service.Compare(ctx, validURL)
		if !errors.Is(err, domain.ErrClassificationRejected) {
			t.Errorf("error = %v, want ErrClassificationRejected", err)
		}
		if f.completer.callsFor("extract") != 0 {
			t.Errorf("extract calls = %d, want 0", f.completer.callsFor("extract"))
		}
	})

	t.Run("extraction transport failure", func(t *testing.T) {
		f := newPipelineFixture(false)
		f.extractErr = domain.ErrLLMFailure
		_, err := f.service.Compare(ctx, validURL)
		if !errors.Is(err, domain.ErrExtractionFailed) {
			t.Errorf("error = %v, want ErrExtractionFailed", err)
		}
	})

	t.Run("no prebuilt name", func(t *testing.T) {
		f := newPipelineFixture(false)
		f.extractAnswer = "CPU: Intel Core i9-13900K"
		_, err := f.service.Compare(ctx, validURL)
		if !errors.Is(err, domain.ErrInvalidExtraction) {
			t.Errorf("error = %v, want ErrInvalidExtraction", err)
		}
		if len(f.searcher.queries) != 0 {
			t.Errorf("searches = %d, want 0", len(f.searcher.queries))
		}
	})

	t.Run("no price on page", func(t *testing.T) {
		f := newPipelineFixture(false)
		f.fetcher.page.Body = `<div class="specs">CPU: Intel Core i9-13900K</div>`
		_, err := f.service.Compare(ctx, validURL)
		if !errors.Is(err, domain.ErrInvalidExtraction) {
			t.Errorf("error = %v, want ErrInvalidExtraction", err)
		}
	})

	t.Run("every component missed", func(t *testing.T) {
		f := newPipelineFixture(false)
		_, err := f.service.Compare(ctx, validURL)
		if !errors.Is(err, domain.ErrInvalidExtraction) {
			t.Errorf("error = %v, want ErrInvalidExtraction", err)
		}
		if len(f.repo.saved) != 0 {
			t.Errorf("saved comparisons = %d, want 0", len(f.repo.saved))
		}
	})
}

func TestCompare_PlaceholdersNeverSearched(t *testing.T) {
	f := newPipelineFixture(true)
	f.cleanupAnswer = "Prebuilt Name: Skytech Azure\nCPU: Intel Core i9-13900K\nGPU: NVIDIA GeForce RTX 4080 16GB"
	f.searcher.results["Intel Core i9-13900K"] = []domain.Listing{
		{Title: "Intel Core i9-13900K Processor", PriceText: "$589.99", Link: "cpu"},
	}

	if _, err := f.service.Compare(context.Background(), &domain.CompareRequest{URL: "https://www.bestbuy.ca/p"}); err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	for _, q := range f.searcher.queries {
		if strings.Contains(strings.ToLower(q.Text), "not listed") {
			t.Errorf("placeholder was searched: %q", q.Text)
		}
	}
	if len(f.searcher.queries) != 2 {
		t.Errorf("searches = %d, want 2", len(f.searcher.queries))
	}
}

func TestCompare_SaveFailureIsNotFatal(t *testing.T) {
	f := newPipelineFixture(false)
	f.repo.saveErr = errors.New("disk full")
	f.searcher.results["Intel Core i9-13900K"] = []domain.Listing{
		{Title: "Intel Core i9-13900K Processor", PriceText: "$589.99", Link: "cpu"},
	}

	if _, err := f.service.Compare(context.Background(), &domain.CompareRequest{URL: "https://www.bestbuy.ca/p"}); err != nil {
		t.Errorf("Compare() error = %v, want nil", err)
	}
}

func TestCompare_RequesterCurrencyOverride(t *testing.T) {
	f := newPipelineFixture(false)
	geo := &MockGeolocator{locale: &domain.Locale{CountryCode: "US", Currency: "USD"}}
	converter := NewCurrencyConverter(&MockRates{rate: 2}, geo, &MockDetector{code: "CAD"}, usLocale, logging.Discard())
	f.service.stages.Converter = converter
	f.service.stages.Content = NewContentExtractor(converter, logging.Discard())
	f.searcher.results["Intel Core i9-13900K"] = []domain.Listing{
		{Title: "Intel Core i9-13900K Processor", PriceText: "$600.00", Link: "cpu"},
	}

	result, err := f.service.Compare(context.Background(), &domain.CompareRequest{URL: "https://www.bestbuy.ca/p", Currency: "cad", ClientIP: "8.8.8.8"})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.PrebuiltPrice != 2499.99 {
		t.Errorf("PrebuiltPrice = %v, want unconverted 2499.99", result.PrebuiltPrice)
	}
	if geo.lastIP != "" {
		t.Errorf("geolocation ran for %q despite override", geo.lastIP)
	}

	result, err = f.service.Compare(context.Background(), &domain.CompareRequest{URL: "https://www.bestbuy.ca/p", ClientIP: "8.8.8.8"})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.PrebuiltPrice != 4999.98 {
		t.Errorf("PrebuiltPrice = %v, want 4999.98 after CAD->USD", result.PrebuiltPrice)
	}
}

func TestCompare_UnknownCurrencyOverrideFallsBackToGeolocation(t *testing.T) {
	f := newPipelineFixture(false)
	geo := &MockGeolocator{locale: &domain.Locale{CountryCode: "US", Currency: "USD"}}
	converter := NewCurrencyConverter(&MockRates{rate: 2}, geo, &MockDetector{code: "CAD"}, usLocale, logging.Discard())
	f.service.stages.Converter = converter
	f.service.stages.Content = NewContentExtractor(converter, logging.Discard())
	f.searcher.results["Intel Core i9-13900K"] = []domain.Listing{
		{Title: "Intel Core i9-13900K Processor", PriceText: "$600.00", Link: "cpu"},
	}

	for _, override := range []string{"ZZZ", "dollars", "C$"} {
		geo.lastIP = ""
		result, err := f.service.Compare(context.Background(), &domain.CompareRequest{URL: "https://www.bestbuy.ca/p", Currency: override, ClientIP: "8.8.8.8"})
		if err != nil {
			t.Fatalf("Compare(%q) error = %v", override, err)
		}
		if geo.lastIP != "8.8.8.8" {
			t.Errorf("Compare(%q) did not geolocate the requester", override)
		}
		if result.PrebuiltPrice != 4999.98 {
			t.Errorf("Compare(%q) PrebuiltPrice = %v, want 4999.98 in geolocated USD", override, result.PrebuiltPrice)
		}
	}
}

func TestRecentComparisons(t *testing.T) {
	f := newPipelineFixture(false)
	f.repo.saved = []*domain.ComparisonResult{{PrebuiltName: "PC"}}

	got, err := f.service.RecentComparisons(context.Background(), 5)
	if err != nil || len(got) != 1 {
		t.Errorf("RecentComparisons() = %v, %v; want one entry", got, err)
	}

	f.service.stages.Repository = nil
	got, err = f.service.RecentComparisons(context.Background(), 5)
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("RecentComparisons() without repository = %v, %v; want empty", got, err)
	}
}

func TestAggregate(t *testing.T) {
	price := 1000.0

	t.Run("totals are exact sums of the listed parts", func(t *testing.T) {
		parts := []domain.ResolvedPart{{Price: 0.1}, {Price: 0.2}, {Price: 99.99}}
		result, err := Aggregate("PC", &price, parts)
		if err != nil {
			t.Fatalf("Aggregate() error = %v", err)
		}
		if result.TotalPartsPrice != 100.29 {
			t.Errorf("TotalPartsPrice = %v, want 100.29", result.TotalPartsPrice)
		}
		if math.Abs(result.PriceDifference-(result.PrebuiltPrice-result.TotalPartsPrice)) > 0.005 {
			t.Errorf("PriceDifference = %v, want prebuilt - total", result.PriceDifference)
		}
		if result.PriceDifference != 899.71 {
			t.Errorf("PriceDifference = %v, want 899.71", result.PriceDifference)
		}
	})

	t.Run("negative difference when parts cost more", func(t *testing.T) {
		result, _ := Aggregate("PC", &price, []domain.ResolvedPart{{Price: 1200.5}})
		if result.PriceDifference != -200.5 {
			t.Errorf("PriceDifference = %v, want -200.5", result.PriceDifference)
		}
	})

	tests := []struct {
		name  string
		pname string
		price *float64
		parts []domain.ResolvedPart
	}{
		{"no parts", "PC", &price, nil},
		{"no name", "", &price, []domain.ResolvedPart{{Price: 1}}},
		{"no price", "PC", nil, []domain.ResolvedPart{{Price: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Aggregate(tt.pname, tt.price, tt.parts); !errors.Is(err, domain.ErrInvalidExtraction) {
				t.Errorf("Aggregate() error = %v, want ErrInvalidExtraction", err)
			}
		})
	}
}
