package gpt

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Compile-time interface check.
var _ Completer = (*GeminiClient)(nil)

// GeminiClient talks to Google Gemini through generative-ai-go.
type GeminiClient struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// NewGeminiClient creates a Gemini client. Close it when done.
func NewGeminiClient(ctx context.Context, apiKey, model string, log *logger.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model, log: log}, nil
}

// Chat maps the system message to a system instruction, earlier turns to
// chat history, and sends the last user message.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("gemini: no messages")
	}

	// A model handle per call keeps SystemInstruction from leaking across
	// concurrent requests.
	model := c.client.GenerativeModel(c.model)

	var system []string
	var history []*genai.Content
	for _, m := range messages[:len(messages)-1] {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(messages[len(messages)-1].Content))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: no content generated")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini: generated content is not text")
	}

	c.log.Debug("gemini: reply (%d chars): %s", b.Len(), truncate(b.String(), 120))
	return b.String(), nil
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
