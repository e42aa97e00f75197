package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// Feature patterns, applied to the lower-cased component type.
// Matches are compacted (whitespace removed) so "RTX 4080" yields "rtx4080".
var (
	// Capacity, clock and power tokens like "16gb", "2 tb", "6000mhz", "850w".
	// The number may follow a multiplier, so "2x16gb" yields "16gb".
	capacityFeatureRegex = regexp.MustCompile(`(?:^|[^\d.])(\d+)\s*(gb|tb|mhz|w)\b`)

	// Interface and family tokens like "ddr5", "gddr6", "pcie", "nvme", "power supply"
	interfaceFeatureRegex = regexp.MustCompile(`gddr\d|ddr\d|\bpcie|\bnvme\b|\bsata\b|\bmotherboard\b|\bcpu\b|\bram\b|\bgpu\b|\bpower\s*supply\b`)

	// Model tokens like "i9", "ryzen 7", "rtx 4080", "gtx 1660", "rx 7800", "b650", "x670", "z790"
	modelFeatureRegex = regexp.MustCompile(`\bi\d\b|\bryzen\s*\d|\brtx\s*\d{3,4}|\bgtx\s*\d{3,4}|\brx\s*\d{4}|\b[bxz]\d{3}`)

	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	FeatureThreshold   float64
	EnableDebugLogging bool
}

// MatchingService filters retailer listings by feature overlap with a component description
type MatchingService struct {
	featureThreshold   float64
	enableDebugLogging bool
	log                logrus.FieldLogger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, log logrus.FieldLogger) *MatchingService {
	threshold := config.FeatureThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5 // Default: half of the features must appear
	}

	return &MatchingService{
		featureThreshold:   threshold,
		enableDebugLogging: config.EnableDebugLogging,
		log:                log.WithField("component", "matcher"),
	}
}

// FindCandidates returns, in listing order, the listings whose titles carry enough of the
// component's features. The order is preserved so callers can accept the first verified one.
func (s *MatchingService) FindCandidates(
	ctx context.Context,
	componentType string,
	listings []domain.Listing,
) ([]domain.Listing, error) {
	features := ExtractFeatures(componentType)

	if s.enableDebugLogging {
		s.log.WithFields(logrus.Fields{"type": componentType, "features": features}).Debug("matching listings")
	}

	var candidates []domain.Listing
	for _, listing := range listings {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		matched, ok := s.Matches(features, listing.Title)

		if s.enableDebugLogging {
			s.log.WithFields(logrus.Fields{"title": listing.Title, "matched": matched, "pass": ok}).Debug("scored listing")
		}

		if ok {
			candidates = append(candidates, listing)
		}
	}

	return candidates, nil
}

// Matches reports whether title carries at least threshold × len(features) of the features.
// An empty feature set passes every title; verification is then the only gate.
func (s *MatchingService) Matches(features []string, title string) ([]string, bool) {
	compact := compactText(title)

	var matched []string
	for _, f := range features {
		if strings.Contains(compact, f) {
			matched = append(matched, f)
		}
	}

	required := s.featureThreshold * float64(len(features))
	return matched, float64(len(matched))+1e-9 >= required
}

// ExtractFeatures returns the unique capacity, interface and model tokens of a component description
func ExtractFeatures(componentType string) []string {
	lower := strings.ToLower(componentType)

	var features []string
	seen := make(map[string]bool)
	add := func(token string) {
		if !seen[token] {
			seen[token] = true
			features = append(features, token)
		}
	}

	for _, m := range capacityFeatureRegex.FindAllStringSubmatch(lower, -1) {
		add(m[1] + m[2])
	}
	for _, re := range []*regexp.Regexp{interfaceFeatureRegex, modelFeatureRegex} {
		for _, m := range re.FindAllString(lower, -1) {
			add(compactText(m))
		}
	}
	return features
}

// compactText lower-cases s and removes all whitespace
func compactText(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.ToLower(s), "")
}
