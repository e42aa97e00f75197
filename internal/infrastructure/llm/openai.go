package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const defaultOpenAIBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint (Groq, OpenAI)
type OpenAIClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	log        logrus.FieldLogger
}

// NewOpenAIClient creates a chat client for an OpenAI-compatible API
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration, log logrus.FieldLogger) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		log:        log.WithField("component", "llm"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// Complete sends a single system+user exchange and returns the assistant's text
func (c *OpenAIClient) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	payload := chatCompletionRequest{
		Model:       req.Model,
		Messages:    buildMessages(req),
		Temperature: 0.1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}

	if resp.StatusCode >= 300 {
		if msg := gjson.GetBytes(respBody, "error.message").String(); msg != "" {
			c.log.WithFields(logrus.Fields{"model": req.Model, "status": resp.StatusCode}).Warnf("chat completion failed: %s", msg)
			return "", fmt.Errorf("%w: %s", domain.ErrLLMFailure, msg)
		}
		return "", fmt.Errorf("%w: HTTP %d", domain.ErrLLMFailure, resp.StatusCode)
	}

	if !gjson.ValidBytes(respBody) {
		return "", fmt.Errorf("%w: malformed response body", domain.ErrLLMFailure)
	}

	content := gjson.GetBytes(respBody, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("%w: response has no choices", domain.ErrLLMFailure)
	}

	c.log.WithFields(logrus.Fields{"model": req.Model, "chars": len(content.String())}).Debug("chat completion received")
	return content.String(), nil
}

func buildMessages(req domain.ChatRequest) []chatMessage {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	return append(messages, chatMessage{Role: "user", Content: req.Prompt})
}
