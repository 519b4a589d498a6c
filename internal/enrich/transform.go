package enrich

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/ports"
)

// TransformStage rewrites raw article text into an explainer.
type TransformStage struct {
	generator ports.TextGenerator
	model     string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewTransformStage wires the generator and model used for rewrites.
func NewTransformStage(gen ports.TextGenerator, model string, timeout time.Duration, log *slog.Logger) *TransformStage {
	return &TransformStage{generator: gen, model: model, timeout: timeout, logger: log}
}

// Run returns the rewritten text. A failed Result carries rawContent unchanged.
func (s *TransformStage) Run(ctx context.Context, title, rawContent, url string) domain.Result[string] {
	if strings.TrimSpace(rawContent) == "" {
		return domain.Failure(rawContent, domain.NewStageError(domain.StageTransform, domain.ErrEmptyInput))
	}
	if s.generator == nil {
		return domain.Failure(rawContent, domain.NewStageError(domain.StageTransform, errors.New("no text generator configured")))
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.generator.Complete(ctx, transformSystemPrompt, transformUserPrompt(title, rawContent, url), ports.CompleteOptions{
		Model: s.model,
	})
	if err != nil {
		return domain.Failure(rawContent, domain.NewStageError(domain.StageTransform, err))
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return domain.Failure(rawContent, domain.NewStageError(domain.StageTransform, errors.New("model returned empty output")))
	}

	if s.logger != nil {
		s.logger.Debug("content rewritten", "url", url, "raw_len", len(rawContent), "rewritten_len", len(out))
	}
	return domain.Success(out)
}
