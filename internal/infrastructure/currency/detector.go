package currency

import (
	"context"
	"fmt"
	"strings"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// StoreDetector reports the transaction currency of a retailer host.
// Known stores come from configuration; unknown hosts are asked of the model.
type StoreDetector struct {
	stores    map[string]string // registrable domain -> currency
	completer domain.ChatCompleter
	model     string
	log       logrus.FieldLogger
}

// NewStoreDetector creates a detector. completer may be nil to disable the model fallback.
func NewStoreDetector(stores map[string]string, completer domain.ChatCompleter, model string, log logrus.FieldLogger) *StoreDetector {
	table := make(map[string]string, len(stores))
	for d, c := range stores {
		table[strings.ToLower(d)] = strings.ToUpper(c)
	}
	return &StoreDetector{
		stores:    table,
		completer: completer,
		model:     model,
		log:       log.WithField("component", "currency-detector"),
	}
}

// DetectCurrency returns the ISO currency code the host transacts in
func (d *StoreDetector) DetectCurrency(ctx context.Context, host string) (string, error) {
	host = strings.ToLower(host)
	if c, ok := d.stores[host]; ok {
		return c, nil
	}
	if registrable, err := publicsuffix.Domain(host); err == nil {
		if c, ok := d.stores[registrable]; ok {
			return c, nil
		}
	}

	if d.completer == nil {
		return "", fmt.Errorf("no currency known for %s", host)
	}

	answer, err := d.completer.Complete(ctx, domain.ChatRequest{
		Model:  d.model,
		System: "You are a helpful assistant.",
		Prompt: "Determine the currency used for transactions on the following website. " +
			"Respond only with the currency code (e.g., USD, CAD, EUR) and no extra text:\n\n" +
			"Website hostname: " + host,
	})
	if err != nil {
		return "", err
	}

	code, ok := Normalize(strings.Trim(strings.TrimSpace(answer), ".\"'"))
	if !ok {
		return "", fmt.Errorf("model returned an invalid currency code %q", answer)
	}

	d.log.WithFields(logrus.Fields{"host": host, "currency": code}).Debug("detected store currency")
	return code, nil
}
