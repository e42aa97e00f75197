package currency

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// RatesClient looks up exchange rates from an open.er-api.com style endpoint
type RatesClient struct {
	httpClient *http.Client
	baseURL    string
	cache      domain.CacheRepository
	ttl        time.Duration
	log        logrus.FieldLogger
}

// NewRatesClient creates an exchange-rate client. cache may be nil; ttl <= 0 disables caching.
func NewRatesClient(baseURL string, timeout time.Duration, cache domain.CacheRepository, ttl time.Duration, log logrus.FieldLogger) *RatesClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RatesClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		cache:      cache,
		ttl:        ttl,
		log:        log.WithField("component", "rates"),
	}
}

// Rate returns how many units of to one unit of from buys
func (c *RatesClient) Rate(ctx context.Context, from, to string) (float64, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return 1, nil
	}

	cacheKey := fmt.Sprintf("rate:%s:%s", from, to)
	if c.cacheEnabled() {
		var cached float64
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil && cached > 0 {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v6/latest/%s", c.baseURL, from), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", domain.ErrConversionFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
	}

	rate := gjson.GetBytes(body, "rates."+to)
	if !rate.Exists() || rate.Float() <= 0 {
		return 0, fmt.Errorf("%w: no %s rate for %s", domain.ErrConversionFailed, to, from)
	}

	if c.cacheEnabled() {
		if err := c.cache.Set(ctx, cacheKey, rate.Float(), c.ttl); err != nil {
			c.log.WithError(err).Debug("failed to cache exchange rate")
		}
	}

	c.log.WithFields(logrus.Fields{"from": from, "to": to, "rate": rate.Float()}).Debug("fetched exchange rate")
	return rate.Float(), nil
}

func (c *RatesClient) cacheEnabled() bool {
	return c.cache != nil && c.ttl > 0
}
