package gpt

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Compile-time interface check.
var _ Completer = (*OpenAIClient)(nil)

// OpenAIClient uses the official OpenAI API through go-openai.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	log       *logger.Logger
}

// NewOpenAIClient creates a client for the given model (e.g. "gpt-4o-mini").
func NewOpenAIClient(apiKey, model string, log *logger.Logger) *OpenAIClient {
	return &OpenAIClient{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: 120,
		log:       log,
	}
}

// Chat sends the conversation through CreateChatCompletion.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response (no choices)")
	}

	reply := resp.Choices[0].Message.Content
	c.log.Debug("openai: reply (%d chars): %s", len(reply), truncate(reply, 120))
	return reply, nil
}
