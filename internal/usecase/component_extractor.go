package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	prebuiltNameMarker = "prebuilt name"
	notListedMarker    = "[Not Listed]"
)

// mandatoryCategories are always present after the clean-up pass
var mandatoryCategories = []string{"CPU", "GPU", "Storage", "Cooling"}

const extractSystemPrompt = "You are an AI that extracts computer parts, their names, types, and the prebuilt PC name from HTML."

const extractPrompt = "Extract **all unique components**, including CPU, GPU, RAM, Storage, Cooling, Motherboard, Power Supply, Case, and the **prebuilt PC name** from this HTML content. " +
	"Ensure each component is listed once with no duplicates. If a component is missing in the HTML, skip it rather than guessing. Format as follows:\n\n" +
	"Prebuilt Name: [Prebuilt PC Name]\n" +
	"CPU: [Component]\n" +
	"GPU: [Component]\n" +
	"Cooling: [Component]\n\n" +
	"Here is the HTML: "

const cleanupSystemPrompt = "You are an AI that cleans and standardizes component details, ensuring all major parts are included if present."

const cleanupPrompt = "Given the following extracted data, include only the prebuilt name and components. " +
	"Make sure that if each major component, like Cooling or Power Supply, appears in the raw data, it is listed once without duplicates or omissions.\n\n" +
	"Format as shown:\n\n" +
	"Prebuilt Name: [Prebuilt Name]\n" +
	"CPU: [Component]\n" +
	"GPU: [Component]\n" +
	"Storage: [Component]\n" +
	"Cooling: [Component]\n\n" +
	"Here is the extracted data: "

// ComponentExtractorConfig holds model selection for component extraction
type ComponentExtractorConfig struct {
	ExtractModel      string
	CleanupModel      string
	EnableCleanupPass bool
}

// ComponentExtractor turns a spec region into a prebuilt name and component list
type ComponentExtractor struct {
	completer domain.ChatCompleter
	config    ComponentExtractorConfig
	log       logrus.FieldLogger
}

// NewComponentExtractor creates a component extractor
func NewComponentExtractor(completer domain.ChatCompleter, config ComponentExtractorConfig, log logrus.FieldLogger) *ComponentExtractor {
	return &ComponentExtractor{
		completer: completer,
		config:    config,
		log:       log.WithField("component", "component-extractor"),
	}
}

// Extract asks the model for one "Label: Value" line per component and parses the answer.
// A failed extraction call returns ErrExtractionFailed; a failed clean-up pass falls back to the raw answer.
func (e *ComponentExtractor) Extract(ctx context.Context, specsMarkup string) (*domain.ComponentList, error) {
	raw, err := e.completer.Complete(ctx, domain.ChatRequest{
		Model:  e.config.ExtractModel,
		System: extractSystemPrompt,
		Prompt: extractPrompt + specsMarkup,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	text := raw
	if e.config.EnableCleanupPass {
		text = e.cleanUp(ctx, raw)
	}

	list := ParseComponents(text)
	e.log.WithFields(logrus.Fields{
		"prebuilt":   list.PrebuiltName,
		"components": len(list.Components),
	}).Debug("extracted components")
	return list, nil
}

// cleanUp normalizes the raw answer and appends placeholders for missing mandatory categories
func (e *ComponentExtractor) cleanUp(ctx context.Context, raw string) string {
	refined, err := e.completer.Complete(ctx, domain.ChatRequest{
		Model:  e.config.CleanupModel,
		System: cleanupSystemPrompt,
		Prompt: cleanupPrompt + raw,
	})
	if err != nil || strings.TrimSpace(refined) == "" {
		e.log.WithError(err).Warn("clean-up pass failed, using raw extraction")
		return raw
	}
	return AppendMissingCategories(refined)
}

// AppendMissingCategories adds a "<Category>: [Not Listed]" line for each absent mandatory category
func AppendMissingCategories(text string) string {
	present := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		label, _, ok := strings.Cut(line, ":")
		if ok {
			present[strings.ToLower(cleanField(label))] = true
		}
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(text))
	for _, category := range mandatoryCategories {
		if !present[strings.ToLower(category)] {
			fmt.Fprintf(&b, "\n%s: %s", category, notListedMarker)
		}
	}
	return b.String()
}

// ParseComponents reads a line-oriented "Label: Value" answer.
// The prebuilt-name line sets the name; other lines split once at the first colon.
// Unparsable lines and placeholder values are skipped, and components are unique by type.
func ParseComponents(text string) *domain.ComponentList {
	list := &domain.ComponentList{}
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label, value = cleanField(label), cleanField(value)

		if strings.Contains(strings.ToLower(label), prebuiltNameMarker) {
			if value != "" && !isPlaceholder(value) {
				list.PrebuiltName = value
			}
			continue
		}

		if label == "" || value == "" || isPlaceholder(value) {
			continue
		}

		key := normalizeType(value)
		if seen[key] {
			continue
		}
		seen[key] = true
		list.Components = append(list.Components, domain.ComponentCandidate{Name: label, Type: value})
	}
	return list
}

// cleanField strips list bullets, markdown emphasis and surrounding whitespace
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-•#> \t")
	s = strings.ReplaceAll(s, "**", "")
	return strings.TrimSpace(strings.Trim(s, "*_`"))
}

// isPlaceholder reports values that name no real part
func isPlaceholder(value string) bool {
	v := strings.ToLower(strings.Trim(value, "[]() "))
	switch v {
	case "not listed", "n/a", "none", "unknown", "not specified", "component", "prebuilt pc name", "prebuilt name":
		return true
	}
	return false
}

func normalizeType(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
