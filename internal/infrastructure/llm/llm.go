// Package llm provides text-generation clients for the comparison pipeline.
package llm

import (
	"fmt"
	"time"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// Config selects and configures a provider
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// New builds the ChatCompleter for the configured provider
func New(cfg Config, log logrus.FieldLogger) (domain.ChatCompleter, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout, log), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == defaultOpenAIBaseURL {
			baseURL = ""
		}
		return NewOllamaClient(baseURL, cfg.Timeout, log)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
