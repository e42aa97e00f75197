package usecase

import (
	"regexp"
	"strings"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// maxQueryLength caps retailer search queries
const maxQueryLength = 100

// Compiled regex patterns for query preprocessing
var (
	// Trademark symbols retailers do not index
	trademarkPattern = regexp.MustCompile(`[®™©]`)

	// Bracketed notes such as "[Not Listed]". Parentheses are kept since they
	// often carry capacity, e.g. "(2x16GB)".
	bracketNotePattern = regexp.MustCompile(`\[[^\]]*\]`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// categoryRule maps component labels onto a retailer category filter
type categoryRule struct {
	labels []string
	code   string
}

// neweggCategories is consulted in order; the first rule naming the label wins
var neweggCategories = []categoryRule{
	{labels: []string{"cpu", "processor"}, code: "100007671"},
	{labels: []string{"gpu", "graphics", "graphics card", "video card"}, code: "100007709"},
	{labels: []string{"ram", "memory", "system memory"}, code: "100007611"},
	{labels: []string{"power supply", "psu"}, code: "100007657"},
	{labels: []string{"case", "chassis"}, code: "100007583"},
	{labels: []string{"storage", "ssd", "hard drive", "primary storage"}, code: "100011693"},
}

// QueryPreprocessor turns component descriptions into retailer search queries
type QueryPreprocessor struct {
	useCategoryCodes   bool
	enableDebugLogging bool
	log                logrus.FieldLogger
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(useCategoryCodes, enableDebugLogging bool, log logrus.FieldLogger) *QueryPreprocessor {
	return &QueryPreprocessor{
		useCategoryCodes:   useCategoryCodes,
		enableDebugLogging: enableDebugLogging,
		log:                log.WithField("component", "query"),
	}
}

// BuildQuery builds the search for a component: its type text as the query,
// plus a category filter looked up by component label when enabled
func (p *QueryPreprocessor) BuildQuery(component domain.ComponentCandidate) domain.SearchQuery {
	query := domain.SearchQuery{Text: p.PreprocessQuery(component.Type)}
	if p.useCategoryCodes {
		query.CategoryCode = CategoryCode(component.Name)
	}

	if p.enableDebugLogging {
		p.log.WithFields(logrus.Fields{"input": component.Type, "query": query.Text, "category": query.CategoryCode}).Debug("built search query")
	}
	return query
}

// PreprocessQuery cleans a component description for retailer search
func (p *QueryPreprocessor) PreprocessQuery(componentType string) string {
	cleaned := trademarkPattern.ReplaceAllString(componentType, "")
	cleaned = bracketNotePattern.ReplaceAllString(cleaned, " ")
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if len([]rune(cleaned)) > maxQueryLength {
		cleaned = truncateRunes(cleaned, maxQueryLength)
		// Try to cut at word boundary
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	return cleaned
}

// CategoryCode returns the retailer category filter for a component label, or ""
func CategoryCode(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, rule := range neweggCategories {
		for _, l := range rule.labels {
			if label == l {
				return rule.code
			}
		}
	}
	return ""
}
