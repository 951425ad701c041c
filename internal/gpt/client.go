// Package gpt provides chat-completion clients and the pantry assistant
// agent that builds prompts on top of them.
package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextMessage is a convenience constructor.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: text}
}

// Completer sends a conversation and returns the assistant's reply. The
// HTTP, go-openai, and Gemini clients all satisfy it.
type Completer interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Compile-time interface check.
var _ Completer = (*ChatClient)(nil)

// ── Wire types ───────────────────────────────────────────────────

type payload struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	MaxTokens   int       `json:"max_tokens"`
	Model       string    `json:"model,omitempty"`
}

type apiResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// ── Client ───────────────────────────────────────────────────────

// ClientOption configures the ChatClient.
type ClientOption func(*ChatClient)

// WithModel sets the model name. Azure deployments leave it empty.
func WithModel(model string) ClientOption {
	return func(c *ChatClient) { c.model = model }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *ChatClient) { c.temperature = t }
}

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int) ClientOption {
	return func(c *ChatClient) { c.maxTokens = n }
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *ChatClient) { c.http.Timeout = d }
}

// WithBearerAuth sends the key as "Authorization: Bearer" instead of the
// Azure "api-key" header.
func WithBearerAuth() ClientOption {
	return func(c *ChatClient) { c.bearer = true }
}

// ChatClient talks to an OpenAI-compatible chat-completions endpoint
// over plain HTTP. Azure OpenAI is the default target.
type ChatClient struct {
	endpoint    string
	apiKey      string
	bearer      bool
	model       string
	temperature float64
	topP        float64
	maxTokens   int
	http        *http.Client
	log         *logger.Logger
}

// NewChatClient creates a chat client.
//   - endpoint: full URL to the chat/completions resource
//     (e.g. "https://<resource>.openai.azure.com/openai/deployments/<dep>/chat/completions?api-version=2024-02-01")
//   - apiKey:   the subscription / API key
func NewChatClient(endpoint, apiKey string, log *logger.Logger, opts ...ClientOption) *ChatClient {
	c := &ChatClient{
		endpoint:    endpoint,
		apiKey:      apiKey,
		temperature: 0.6,
		topP:        0.95,
		maxTokens:   120,
		http:        &http.Client{Timeout: 20 * time.Second},
		log:         log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Chat sends a chat-completion request and returns the assistant's reply.
func (c *ChatClient) Chat(ctx context.Context, messages []Message) (string, error) {
	jsonData, err := json.Marshal(payload{
		Messages:    messages,
		Temperature: c.temperature,
		TopP:        c.topP,
		MaxTokens:   c.maxTokens,
		Model:       c.model,
	})
	if err != nil {
		return "", fmt.Errorf("gpt: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("gpt: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.bearer {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else {
		req.Header.Set("api-key", c.apiKey)
	}

	c.log.Debug("gpt: POST %s (%d bytes)", c.endpoint, len(jsonData))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gpt: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gpt: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gpt: API %s: %s", resp.Status, truncate(string(respBody), 200))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("gpt: unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("gpt: empty response (no choices)")
	}

	reply := result.Choices[0].Message.Content
	c.log.Debug("gpt: reply (%d chars): %s", len(reply), truncate(reply, 120))
	return reply, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
