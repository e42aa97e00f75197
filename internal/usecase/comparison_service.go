package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/currency"
)

// Stages are the pipeline collaborators of a ComparisonService
type Stages struct {
	Fetcher    domain.PageFetcher
	Classifier *PrebuiltClassifier
	Content    *ContentExtractor
	Components *ComponentExtractor
	Resolver   *PriceResolver
	Converter  *CurrencyConverter
	Repository domain.ComparisonRepository // optional
}

// ComparisonService compares a prebuilt's price against the sum of its parts
type ComparisonService struct {
	stages Stages
	log    logrus.FieldLogger
}

// NewComparisonService creates a new comparison service
func NewComparisonService(stages Stages, log logrus.FieldLogger) *ComparisonService {
	return &ComparisonService{
		stages: stages,
		log:    log.WithField("component", "comparison"),
	}
}

// Compare runs the pipeline for one URL.
// Flow: fetch -> classify -> extract content -> extract components -> resolve parts (sequential) -> aggregate
func (s *ComparisonService) Compare(ctx context.Context, request *domain.CompareRequest) (*domain.ComparisonResult, error) {
	if request == nil || strings.TrimSpace(request.URL) == "" {
		return nil, domain.ErrInvalidInput
	}
	url := strings.TrimSpace(request.URL)
	log := s.log.WithField("url", url)

	page, err := s.stages.Fetcher.Fetch(ctx, url, request.UserAgent)
	if err != nil {
		return nil, err
	}

	if err := s.stages.Classifier.Classify(ctx, page); err != nil {
		return nil, err
	}

	requesterCurrency := ""
	if request.Currency != "" {
		if unit, err := currency.ParseISO(strings.TrimSpace(request.Currency)); err == nil {
			requesterCurrency = unit.String()
		} else {
			log.WithField("currency", request.Currency).Warn("ignoring unknown currency override")
		}
	}
	if requesterCurrency == "" && s.stages.Converter != nil {
		requesterCurrency = s.stages.Converter.RequesterCurrency(ctx, request.ClientIP)
	}

	content, err := s.stages.Content.Extract(ctx, page, requesterCurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidExtraction, err)
	}

	components, err := s.stages.Components.Extract(ctx, content.SpecsMarkup)
	if err != nil {
		return nil, err
	}

	// Nothing downstream can succeed without these, so skip the retailer lookups
	if content.PrebuiltPrice == nil || components.PrebuiltName == "" || len(components.Components) == 0 {
		log.WithFields(logrus.Fields{
			"has_price":  content.PrebuiltPrice != nil,
			"name":       components.PrebuiltName,
			"components": len(components.Components),
		}).Warn("extraction produced no usable prebuilt")
		return nil, domain.ErrInvalidExtraction
	}

	var parts []domain.ResolvedPart
	for _, component := range components.Components {
		part, err := s.stages.Resolver.Resolve(ctx, component, requesterCurrency)
		if err != nil {
			if isPartNotFound(err) {
				log.WithError(err).WithField("component", component.Name).Info("component skipped")
				continue
			}
			return nil, err
		}
		parts = append(parts, *part)
	}

	result, err := Aggregate(components.PrebuiltName, content.PrebuiltPrice, parts)
	if err != nil {
		log.Warn("no components resolved to a verified listing")
		return nil, err
	}

	if s.stages.Repository != nil {
		if err := s.stages.Repository.SaveComparison(ctx, url, result); err != nil {
			log.WithError(err).Warn("failed to save comparison")
		}
	}

	log.WithFields(logrus.Fields{
		"prebuilt_price":    result.PrebuiltPrice,
		"total_parts_price": result.TotalPartsPrice,
		"parts":             len(result.Parts),
	}).Info("comparison complete")
	return result, nil
}

// RecentComparisons lists saved comparisons when a repository is configured
func (s *ComparisonService) RecentComparisons(ctx context.Context, limit int) ([]domain.StoredComparison, error) {
	if s.stages.Repository == nil {
		return []domain.StoredComparison{}, nil
	}
	return s.stages.Repository.RecentComparisons(ctx, limit)
}

// Aggregate builds the comparison. It needs a name, a price and at least one part.
// Totals are rounded to cents, and the difference is taken from the rounded total.
func Aggregate(prebuiltName string, prebuiltPrice *float64, parts []domain.ResolvedPart) (*domain.ComparisonResult, error) {
	if prebuiltName == "" || prebuiltPrice == nil || len(parts) == 0 {
		return nil, domain.ErrInvalidExtraction
	}

	var total float64
	for _, p := range parts {
		total += p.Price
	}
	total = roundCents(total)

	return &domain.ComparisonResult{
		PrebuiltName:    prebuiltName,
		PrebuiltPrice:   *prebuiltPrice,
		Parts:           parts,
		TotalPartsPrice: total,
		PriceDifference: roundCents(*prebuiltPrice - total),
	}, nil
}
