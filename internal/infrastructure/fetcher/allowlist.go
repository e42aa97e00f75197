package fetcher

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// Allowlist decides which retailer hosts may be fetched
type Allowlist struct {
	domains map[string]bool
}

// NewAllowlist creates an allow-list of registrable retailer domains
func NewAllowlist(domains []string) *Allowlist {
	set := make(map[string]bool, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[strings.TrimPrefix(d, "www.")] = true
		}
	}
	return &Allowlist{domains: set}
}

// Allowed reports whether host, or its registrable domain, is allow-listed
func (a *Allowlist) Allowed(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return false
	}
	if a.domains[host] || a.domains[strings.TrimPrefix(host, "www.")] {
		return true
	}
	registrable, err := publicsuffix.Domain(host)
	if err != nil {
		return false
	}
	return a.domains[registrable]
}

// ParseURL normalises a user-submitted product URL and returns it with its host.
// A missing scheme is treated as https.
func ParseURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, domain.ErrInvalidInput
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedDomain, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", domain.ErrUnsupportedDomain, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", domain.ErrUnsupportedDomain)
	}
	return u, nil
}
