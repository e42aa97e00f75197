package currency

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// GeoClient resolves client IPs to a country via a geojs.io style endpoint
type GeoClient struct {
	httpClient      *http.Client
	baseURL         string
	defaultCurrency string
	log             logrus.FieldLogger
}

// NewGeoClient creates a geolocation client
func NewGeoClient(baseURL, defaultCurrency string, timeout time.Duration, log logrus.FieldLogger) *GeoClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GeoClient{
		httpClient:      &http.Client{Timeout: timeout},
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		defaultCurrency: defaultCurrency,
		log:             log.WithField("component", "geo"),
	}
}

// Locate returns the country and currency for ip.
// Private or empty addresses are looked up as the server's own public address.
func (c *GeoClient) Locate(ctx context.Context, ip string) (*domain.Locale, error) {
	endpoint := c.baseURL + "/v1/ip/geo.json"
	if parsed := net.ParseIP(ip); parsed != nil && !parsed.IsPrivate() && !parsed.IsLoopback() && !parsed.IsUnspecified() {
		endpoint = fmt.Sprintf("%s/v1/ip/geo/%s.json", c.baseURL, parsed.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeoLookupFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeoLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrGeoLookupFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGeoLookupFailed, err)
	}

	country := strings.ToUpper(gjson.GetBytes(body, "country_code").String())
	if country == "" {
		return nil, fmt.Errorf("%w: response has no country_code", domain.ErrGeoLookupFailed)
	}

	locale := &domain.Locale{
		CountryCode: country,
		Currency:    ForCountry(country, c.defaultCurrency),
	}
	c.log.WithFields(logrus.Fields{"country": locale.CountryCode, "currency": locale.Currency}).Debug("resolved requester locale")
	return locale, nil
}
