// Package enrich implements the three enrichment stages applied to every new
// article: embedding, explainer rewrite and relevance classification. Each
// stage returns a domain.Result; none of them is fatal to the article.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/ports"
)

const defaultEmbeddingMaxLength = 8000

// EmbeddingStage computes a vector from title and raw content.
type EmbeddingStage struct {
	embedder  ports.Embedder
	maxLength int
	timeout   time.Duration
	logger    *slog.Logger
}

// NewEmbeddingStage wires the provider; maxLength is counted in runes.
func NewEmbeddingStage(embedder ports.Embedder, maxLength int, timeout time.Duration, log *slog.Logger) *EmbeddingStage {
	if maxLength <= 0 {
		maxLength = defaultEmbeddingMaxLength
	}
	return &EmbeddingStage{embedder: embedder, maxLength: maxLength, timeout: timeout, logger: log}
}

// Run embeds the raw text. A failed Result carries a nil embedding.
func (s *EmbeddingStage) Run(ctx context.Context, title, rawContent string) domain.Result[*domain.Embedding] {
	input := EmbeddingInput(title, rawContent)
	if input == "" {
		return domain.Failure[*domain.Embedding](nil, domain.NewStageError(domain.StageEmbedding, domain.ErrEmptyInput))
	}
	if s.embedder == nil {
		return domain.Failure[*domain.Embedding](nil, domain.NewStageError(domain.StageEmbedding, errors.New("no embedding provider configured")))
	}

	input = truncateRunes(input, s.maxLength)

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	emb, err := s.embedder.Embed(ctx, input, s.maxLength)
	if err != nil {
		return domain.Failure[*domain.Embedding](nil, domain.NewStageError(domain.StageEmbedding, err))
	}
	if len(emb.Vector) == 0 {
		return domain.Failure[*domain.Embedding](nil, domain.NewStageError(domain.StageEmbedding, errors.New("provider returned empty vector")))
	}
	if emb.Dimensions == 0 {
		emb.Dimensions = len(emb.Vector)
	}
	if emb.Dimensions != len(emb.Vector) {
		return domain.Failure[*domain.Embedding](nil, domain.NewStageError(domain.StageEmbedding,
			fmt.Errorf("provider reported %d dimensions for a %d-length vector", emb.Dimensions, len(emb.Vector))))
	}

	s.debug("embedding computed", "dimensions", emb.Dimensions, "model", emb.Model, "input_runes", len([]rune(input)))
	return domain.Success(&emb)
}

// EmbeddingInput is the exact text that is embedded for an article.
func EmbeddingInput(title, rawContent string) string {
	title = strings.TrimSpace(title)
	rawContent = strings.TrimSpace(rawContent)
	switch {
	case title == "":
		return rawContent
	case rawContent == "":
		return title
	default:
		return title + "\n\n" + rawContent
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (s *EmbeddingStage) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
