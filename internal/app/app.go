// Package app wires configuration into the comparison pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prebuiltcheck/backend/config"
	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/prebuiltcheck/backend/internal/infrastructure/cache"
	"github.com/prebuiltcheck/backend/internal/infrastructure/currency"
	"github.com/prebuiltcheck/backend/internal/infrastructure/fetcher"
	"github.com/prebuiltcheck/backend/internal/infrastructure/llm"
	"github.com/prebuiltcheck/backend/internal/infrastructure/retailer"
	"github.com/prebuiltcheck/backend/internal/infrastructure/storage"
	"github.com/prebuiltcheck/backend/internal/infrastructure/useragent"
	"github.com/prebuiltcheck/backend/internal/usecase"
	"github.com/sirupsen/logrus"
)

// App holds the assembled comparison service and the resources it owns
type App struct {
	Config  *config.Config
	Service *usecase.ComparisonService

	closers []io.Closer
	log     logrus.FieldLogger
}

// New builds every pipeline stage from cfg
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	a := &App{Config: cfg, log: log}

	rateCache, err := a.newCache(ctx)
	if err != nil {
		return nil, err
	}

	completer, err := llm.New(llm.Config{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		BaseURL:  cfg.AI.BaseURL,
		Timeout:  cfg.AI.Timeout,
	}, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	agents := useragent.NewPool(cfg.Retailer.UserAgents)
	pageFetcher := fetcher.NewFetcher(
		fetcher.NewAllowlist(cfg.Retailer.AllowedDomains()),
		agents,
		cfg.Retailer.Timeout,
		log,
	)

	searcher, err := retailer.NewNeweggClient(retailer.Options{
		BaseURL:        cfg.Retailer.SearchBaseURL,
		Timeout:        cfg.Retailer.Timeout,
		RetryMax:       cfg.Retailer.RetryMax,
		RetryWaitMin:   cfg.Retailer.RetryWaitMin,
		RetryWaitMax:   cfg.Retailer.RetryWaitMax,
		RequestsPerMin: cfg.RateLimit.Retailer,
	}, agents, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("retailer client: %w", err)
	}

	converter := usecase.NewCurrencyConverter(
		currency.NewRatesClient(cfg.Currency.RatesBaseURL, cfg.Currency.Timeout, rateCache, cfg.Cache.TTL, log),
		currency.NewGeoClient(cfg.Currency.GeoBaseURL, cfg.Currency.DefaultCurrency, cfg.Currency.Timeout, log),
		currency.NewStoreDetector(cfg.Retailer.StoreCurrencies(), completer, cfg.AI.Models.Currency, log),
		domain.Locale{CountryCode: cfg.Currency.DefaultCountry, Currency: cfg.Currency.DefaultCurrency},
		log,
	)

	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		FeatureThreshold:   cfg.Matching.FeatureThreshold,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}, log)
	preprocessor := usecase.NewQueryPreprocessor(cfg.Retailer.CategoryFilters, cfg.Matching.EnableDebugLogging, log)

	stages := usecase.Stages{
		Fetcher:    pageFetcher,
		Classifier: usecase.NewPrebuiltClassifier(completer, cfg.AI.Models.Classify, log),
		Content:    usecase.NewContentExtractor(converter, log),
		Components: usecase.NewComponentExtractor(completer, usecase.ComponentExtractorConfig{
			ExtractModel:      cfg.AI.Models.Extract,
			CleanupModel:      cfg.AI.Models.Cleanup,
			EnableCleanupPass: cfg.Matching.EnableCleanupPass,
		}, log),
		Resolver: usecase.NewPriceResolver(searcher, completer, matcher, preprocessor, converter, usecase.PriceResolverConfig{
			VerifyModel:      cfg.AI.Models.Verify,
			RetailerCurrency: cfg.Retailer.SearchCurrency,
		}, log),
		Converter: converter,
	}

	if cfg.Storage.Enabled {
		db, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("comparison store: %w", err)
		}
		a.closers = append(a.closers, db)
		stages.Repository = db
		log.WithField("path", cfg.Storage.Path).Info("saving comparisons to sqlite")
	}

	a.Service = usecase.NewComparisonService(stages, log)
	return a, nil
}

// newCache returns the exchange-rate cache for the configured backend
func (a *App) newCache(ctx context.Context) (domain.CacheRepository, error) {
	switch a.Config.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, a.Config.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisCache)
		a.log.Info("using redis rate cache")
		return redisCache, nil
	default:
		return cache.NewMemoryCache(), nil
	}
}

// Close releases the store and cache connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
