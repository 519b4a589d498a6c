package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"NewsIngestor/internal/config"
	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/ports"
)

// Embedder implements ports.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	logger   *slog.Logger
}

var _ ports.Embedder = (*Embedder)(nil)

// NewEmbedder builds an embedder from configuration.
func NewEmbedder(cfg config.LLMConfig, log *slog.Logger) (*Embedder, error) {
	if cfg.BaseURL == "" || cfg.EmbeddingModel == "" {
		return nil, fmt.Errorf("embedder misconfigured")
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(tokenOrNone(cfg.APIKey)),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	return NewEmbedderWithClient(client, cfg.EmbeddingModel, log)
}

// NewEmbedderWithClient wraps any langchaingo embedder client.
func NewEmbedderWithClient(client embeddings.EmbedderClient, model string, log *slog.Logger) (*Embedder, error) {
	e, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &Embedder{embedder: e, model: model, logger: log}, nil
}

// Embed generates a vector for text, truncated to maxLength runes.
func (e *Embedder) Embed(ctx context.Context, text string, maxLength int) (domain.Embedding, error) {
	if maxLength > 0 {
		if r := []rune(text); len(r) > maxLength {
			text = string(r[:maxLength])
		}
	}

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return domain.Embedding{}, fmt.Errorf("embed query: %w", err)
	}
	if len(vector) == 0 {
		return domain.Embedding{}, errors.New("embedder returned empty result")
	}

	if e.logger != nil {
		e.logger.Debug("embedding generated", "model", e.model, "dimensions", len(vector))
	}
	return domain.Embedding{Vector: vector, Model: e.model, Dimensions: len(vector)}, nil
}
