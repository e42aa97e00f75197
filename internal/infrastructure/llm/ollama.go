package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const defaultOllamaBaseURL = "http://127.0.0.1:11434"

// OllamaClient runs chat completions against a local ollama server
type OllamaClient struct {
	client *ollama.Client
	log    logrus.FieldLogger
}

// NewOllamaClient creates a chat client for the ollama server at baseURL
func NewOllamaClient(baseURL string, timeout time.Duration, log logrus.FieldLogger) (*OllamaClient, error) {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &OllamaClient{
		client: ollama.NewClient(base, &http.Client{Timeout: timeout}),
		log:    log.WithField("component", "llm"),
	}, nil
}

// Complete sends a single system+user exchange and returns the assistant's text
func (c *OllamaClient) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	var messages []ollama.Message
	for _, m := range buildMessages(req) {
		messages = append(messages, ollama.Message{Role: m.Role, Content: m.Content})
	}

	// The model name for ollama is without the "ollama:" prefix
	model := strings.TrimPrefix(req.Model, "ollama:")
	stream := false
	chatReq := &ollama.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": 0.1,
		},
	}

	var out strings.Builder
	err := c.client.Chat(ctx, chatReq, func(res ollama.ChatResponse) error {
		out.WriteString(res.Message.Content)
		return nil
	})
	if err != nil {
		c.log.WithError(err).WithField("model", model).Warn("ollama chat failed")
		return "", fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}

	return out.String(), nil
}
