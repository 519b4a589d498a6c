package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"NewsIngestor/internal/config"
	"NewsIngestor/internal/ports"
)

// ChatGPTClient implements ports.TextGenerator backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	model        llms.Model
	defaultModel string
	logger       *slog.Logger
}

var _ ports.TextGenerator = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.LLMConfig, log *slog.Logger) (*ChatGPTClient, error) {
	if cfg.BaseURL == "" || cfg.ClassifierModel == "" {
		return nil, fmt.Errorf("chatgpt client misconfigured")
	}

	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(tokenOrNone(cfg.APIKey)),
		openai.WithModel(cfg.ClassifierModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	return NewChatGPTClientWithModel(model, cfg.ClassifierModel, log), nil
}

// NewChatGPTClientWithModel wraps any langchaingo model.
func NewChatGPTClientWithModel(model llms.Model, defaultModel string, log *slog.Logger) *ChatGPTClient {
	return &ChatGPTClient{model: model, defaultModel: defaultModel, logger: log}
}

// Complete sends one system+user exchange and returns the first choice.
func (c *ChatGPTClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ports.CompleteOptions) (string, error) {
	if c == nil || c.model == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, safePrompt(systemPrompt)),
		llms.TextParts(schema.ChatMessageTypeHuman, userPrompt),
	}

	callOpts := []llms.CallOption{llms.WithTemperature(0.2)}
	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}
	if model != "" {
		callOpts = append(callOpts, llms.WithModel(model))
	}
	if opts.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode(), llms.WithTemperature(0.0))
	}

	resp, err := c.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	text := resp.Choices[0].Content
	if opts.JSONMode {
		text = stripCodeFence(text)
	}

	if c.logger != nil {
		c.logger.Debug("completion received", "model", model, "json", opts.JSONMode, "length", len(text))
	}
	return text, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a helpful assistant that works with news articles."
	}
	return prompt
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Local OpenAI-compatible servers accept any token.
func tokenOrNone(key string) string {
	if strings.TrimSpace(key) == "" {
		return "none"
	}
	return key
}
