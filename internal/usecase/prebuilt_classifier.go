package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// classifierSampleChars is how much of the page the classifier sees
const classifierSampleChars = 10000

const classifierSystemPrompt = "You are an AI that determines if a webpage HTML describes a prebuilt gaming desktop PC."

const classifierPrompt = "Analyze the HTML content and determine if the page describes a prebuilt gaming desktop PC. " +
	"If it does, respond with 'yes'. If not, respond with 'no'. Only consider pages that describe prebuilt desktop PCs.\n" +
	"Here is the HTML: "

// PrebuiltClassifier gates the pipeline on whether a page describes a prebuilt desktop
type PrebuiltClassifier struct {
	completer domain.ChatCompleter
	model     string
	log       logrus.FieldLogger
}

// NewPrebuiltClassifier creates a classifier using the given model
func NewPrebuiltClassifier(completer domain.ChatCompleter, model string, log logrus.FieldLogger) *PrebuiltClassifier {
	return &PrebuiltClassifier{
		completer: completer,
		model:     model,
		log:       log.WithField("component", "classifier"),
	}
}

// Classify returns nil when the page is judged to be a prebuilt desktop.
// A negative answer returns ErrClassificationRejected. A failed call also rejects,
// wrapping ErrClassifierUnavailable so the two cases stay distinguishable.
func (c *PrebuiltClassifier) Classify(ctx context.Context, page *domain.SourcePage) error {
	answer, err := c.completer.Complete(ctx, domain.ChatRequest{
		Model:  c.model,
		System: classifierSystemPrompt,
		Prompt: classifierPrompt + truncateRunes(page.Body, classifierSampleChars),
	})
	if err != nil {
		c.log.WithError(err).WithField("url", page.URL).Warn("classifier call failed, rejecting page")
		return fmt.Errorf("%w: %w", domain.ErrClassificationRejected, domain.ErrClassifierUnavailable)
	}

	if normalizeAnswer(answer) != "yes" {
		c.log.WithFields(logrus.Fields{"url": page.URL, "answer": answer}).Info("page rejected as not a prebuilt")
		return domain.ErrClassificationRejected
	}
	return nil
}

// normalizeAnswer lower-cases a model answer and drops surrounding whitespace, quotes and punctuation
func normalizeAnswer(answer string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(answer)), " \t\r\n.!'\"")
}
