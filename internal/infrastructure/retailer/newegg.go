// Package retailer searches retailer catalogs for standalone component listings.
package retailer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/prebuiltcheck/backend/internal/infrastructure/useragent"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Options configures a Newegg search client
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	RetryMax       int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
	RequestsPerMin int // 0 disables the limiter
}

// NeweggClient searches the Newegg catalog and parses its listing cards
type NeweggClient struct {
	httpClient  *retryablehttp.Client
	baseURL     *url.URL
	rateLimiter *rate.Limiter
	agents      *useragent.Pool
	log         logrus.FieldLogger
}

// NewNeweggClient creates a search client with retries on 403, 429 and 5xx
func NewNeweggClient(opts Options, agents *useragent.Pool, log logrus.FieldLogger) (*NeweggClient, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid retailer base URL %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}

	log = log.WithField("component", "newegg")

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = opts.Timeout
	client.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	client.CheckRetry = retryPolicy
	client.Backoff = retryablehttp.DefaultBackoff
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = leveledLogger{log}
	// every attempt goes out under a fresh browser identity
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		req.Header.Set("User-Agent", agents.Next())
		if attempt > 0 {
			log.WithFields(logrus.Fields{"url": req.URL.String(), "attempt": attempt}).Debug("retrying retailer search")
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerMin > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMin)), 1)
	}

	return &NeweggClient{
		httpClient:  client,
		baseURL:     base,
		rateLimiter: limiter,
		agents:      agents,
		log:         log,
	}, nil
}

// retryPolicy retries transport errors, 403, 429, and 5xx other than 501
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch {
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusTooManyRequests:
		return true, nil
	case resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented:
		return true, nil
	}
	return false, nil
}

// searchURL builds the catalog search URL for a query
func (c *NeweggClient) searchURL(query domain.SearchQuery) string {
	params := url.Values{}
	params.Set("d", query.Text)
	if query.CategoryCode != "" {
		params.Set("N", query.CategoryCode)
	}
	return fmt.Sprintf("%s/p/pl?%s", c.baseURL.String(), params.Encode())
}

// Search returns the listing cards for a query in page order
func (c *NeweggClient) Search(ctx context.Context, query domain.SearchQuery) ([]domain.Listing, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		// Wait fails early when the next token lands past the deadline
		if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}

	reqURL := c.searchURL(query)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetailerFailure, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("query", query.Text).Warn("retailer search failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrRetailerFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.WithFields(logrus.Fields{"query": query.Text, "status": resp.StatusCode}).Warn("retailer search returned non-200")
		return nil, fmt.Errorf("%w: status %d", domain.ErrRetailerFailure, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRetailerFailure, err)
	}

	listings := c.parseListings(doc)
	c.log.WithFields(logrus.Fields{"query": query.Text, "listings": len(listings)}).Debug("parsed retailer search page")
	return listings, nil
}

// parseListings reads item cards, skipping cards without a title or link
func (c *NeweggClient) parseListings(doc *goquery.Document) []domain.Listing {
	var listings []domain.Listing
	doc.Find("div.item-cell").Each(func(_ int, card *goquery.Selection) {
		anchor := card.Find("a.item-title").First()
		title := strings.Join(strings.Fields(anchor.Text()), " ")
		href, ok := anchor.Attr("href")
		if title == "" || !ok || strings.TrimSpace(href) == "" {
			return
		}
		listings = append(listings, domain.Listing{
			Title:     title,
			PriceText: strings.Join(strings.Fields(card.Find("li.price-current").First().Text()), " "),
			Link:      c.resolveLink(href),
		})
	})
	return listings
}

func (c *NeweggClient) resolveLink(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return c.baseURL.ResolveReference(ref).String()
}

// leveledLogger adapts logrus to retryablehttp's LeveledLogger
type leveledLogger struct {
	log logrus.FieldLogger
}

func (l leveledLogger) fields(keysAndValues []interface{}) logrus.FieldLogger {
	entry := l.log
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry = entry.WithField(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	return entry
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}
