package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// listingPriceRegex finds the first amount in a listing price such as "$1,599.99 –"
var listingPriceRegex = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

const verifySystemPrompt = "You accurately classify components as standalone or prebuilt systems."

// PriceResolverConfig holds configuration for the price resolver
type PriceResolverConfig struct {
	VerifyModel      string
	RetailerCurrency string
}

// PriceResolver finds a verified standalone retail listing for one component at a time
type PriceResolver struct {
	searcher     domain.RetailSearcher
	completer    domain.ChatCompleter
	matcher      *MatchingService
	preprocessor *QueryPreprocessor
	converter    *CurrencyConverter
	config       PriceResolverConfig
	log          logrus.FieldLogger
}

// NewPriceResolver creates a price resolver. converter may be nil to skip conversion.
func NewPriceResolver(
	searcher domain.RetailSearcher,
	completer domain.ChatCompleter,
	matcher *MatchingService,
	preprocessor *QueryPreprocessor,
	converter *CurrencyConverter,
	config PriceResolverConfig,
	log logrus.FieldLogger,
) *PriceResolver {
	return &PriceResolver{
		searcher:     searcher,
		completer:    completer,
		matcher:      matcher,
		preprocessor: preprocessor,
		converter:    converter,
		config:       config,
		log:          log.WithField("component", "price-resolver"),
	}
}

// Resolve searches the retailer for the component's type and accepts the first listing that
// passes the feature threshold, carries a price, and is verified as a standalone part.
// It returns ErrPartNotFound when nothing qualifies.
func (r *PriceResolver) Resolve(
	ctx context.Context,
	component domain.ComponentCandidate,
	requesterCurrency string,
) (*domain.ResolvedPart, error) {
	query := r.preprocessor.BuildQuery(component)
	if query.Text == "" {
		return nil, fmt.Errorf("%w: empty query for %s", domain.ErrPartNotFound, component.Name)
	}

	listings, err := r.searcher.Search(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if deadlineBound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPartNotFound, err)
	}

	candidates, err := r.matcher.FindCandidates(ctx, component.Type, listings)
	if err != nil {
		return nil, err
	}

	for _, listing := range candidates {
		price, ok := ParseListingPrice(listing.PriceText)
		if !ok {
			continue
		}

		verified, err := r.verify(ctx, listing.Title, component.Type)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.log.WithError(err).WithField("title", listing.Title).Warn("verification call failed, skipping listing")
			continue
		}
		if !verified {
			continue
		}

		if r.converter != nil {
			price = r.converter.Convert(ctx, price, r.config.RetailerCurrency, requesterCurrency)
		}

		r.log.WithFields(logrus.Fields{"type": component.Type, "title": listing.Title, "price": price}).Info("resolved component")
		return &domain.ResolvedPart{
			Name:  component.Name,
			Type:  component.Type,
			Price: price,
			Link:  listing.Link,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrPartNotFound, component.Type)
}

// verify asks the model whether a listing is the standalone component rather than a system
func (r *PriceResolver) verify(ctx context.Context, title, componentType string) (bool, error) {
	prompt := fmt.Sprintf("Does '%s' accurately describe a standalone '%s' "+
		"and NOT a prebuilt PC, Gaming Desktop, Laptop, or System? Respond 'yes' only if it is definitely a standalone component, "+
		"not a system, prebuilt, or anything unrelated to standalone parts. Reply 'no' otherwise.", title, componentType)

	answer, err := r.completer.Complete(ctx, domain.ChatRequest{
		Model:  r.config.VerifyModel,
		System: verifySystemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(normalizeAnswer(answer), "yes"), nil
}

// ParseListingPrice reads the first amount in a listing's price text
func ParseListingPrice(text string) (float64, bool) {
	m := listingPriceRegex.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// deadlineBound reports a search the rate limiter refused because the
// request deadline would pass first. Later components would fail the same way.
func deadlineBound(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) && errors.Is(err, context.DeadlineExceeded)
}

// isPartNotFound reports a non-fatal per-component miss
func isPartNotFound(err error) bool {
	return errors.Is(err, domain.ErrPartNotFound)
}
