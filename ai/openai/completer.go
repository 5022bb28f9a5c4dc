package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/specindex/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyCompletion is returned when the service responds without any choices.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// Completer implements ai.Completer using an OpenAI-compatible chat completion API.
type Completer struct {
	client      *openai.LLM
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(apiKey(config)),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Completer{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-completer"),
	}, nil
}

// NewCompleter creates a new completer using the provided configuration.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete sends the system prompt and conversation to the completion model.
func (c *Completer) Complete(ctx context.Context, systemPrompt string, messages []ai.Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages)+1)
	if systemPrompt != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		})
	}
	for _, msg := range messages {
		content = append(content, llms.MessageContent{
			Role:  messageType(msg.Role),
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}

	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	c.logger.Debug("requesting completion", "messages", len(messages))
	resp, err := c.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		c.logger.Error("completion failed", "err", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Content, nil
}

func messageType(role ai.Role) llms.ChatMessageType {
	switch role {
	case ai.RoleAssistant:
		return llms.ChatMessageTypeAI
	case ai.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}
