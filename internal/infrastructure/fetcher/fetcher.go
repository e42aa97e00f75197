// Package fetcher retrieves prebuilt product pages from allow-listed retailers.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/prebuiltcheck/backend/internal/infrastructure/useragent"
	"github.com/sirupsen/logrus"
)

// maxPageBytes caps how much of a product page is read
const maxPageBytes = 8 << 20

// Fetcher issues a single GET per product page. It does not retry.
type Fetcher struct {
	httpClient *http.Client
	allowlist  *Allowlist
	agents     *useragent.Pool
	log        logrus.FieldLogger
}

// NewFetcher creates a page fetcher for the given allow-list
func NewFetcher(allowlist *Allowlist, agents *useragent.Pool, timeout time.Duration, log logrus.FieldLogger) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		allowlist:  allowlist,
		agents:     agents,
		log:        log.WithField("component", "fetcher"),
	}
}

// Fetch validates the URL against the allow-list and downloads the page.
// userAgent overrides the rotating pool when non-empty.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, userAgent string) (*domain.SourcePage, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	host := u.Hostname()
	if !f.allowlist.Allowed(host) {
		f.log.WithField("host", host).Warn("rejected URL outside retailer allow-list")
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedDomain, host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &domain.FetchError{Message: err.Error()}
	}
	if userAgent == "" {
		userAgent = f.agents.Next()
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.log.WithError(err).WithField("url", u.String()).Warn("page fetch failed")
		return nil, &domain.FetchError{Message: transportMessage(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.log.WithFields(logrus.Fields{"url": u.String(), "status": resp.StatusCode}).Warn("page fetch returned non-2xx")
		return nil, &domain.FetchError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, &domain.FetchError{Message: transportMessage(err)}
	}

	f.log.WithFields(logrus.Fields{"url": u.String(), "bytes": len(body)}).Debug("fetched product page")

	return &domain.SourcePage{
		URL:  u.String(),
		Host: host,
		Body: string(body),
	}, nil
}

// transportMessage drops the method and URL that *url.Error prefixes
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
