package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/ports"
)

// ClassificationStage decides whether an article is interesting.
type ClassificationStage struct {
	generator ports.TextGenerator
	model     string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewClassificationStage wires the generator and model used for classification.
func NewClassificationStage(gen ports.TextGenerator, model string, timeout time.Duration, log *slog.Logger) *ClassificationStage {
	return &ClassificationStage{generator: gen, model: model, timeout: timeout, logger: log}
}

// Run classifies title and content. A failed Result carries LabelUnknown and
// a reasoning string describing the failure.
func (s *ClassificationStage) Run(ctx context.Context, title, content, url string) domain.Result[domain.Classification] {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return failedClassification(domain.ErrEmptyInput)
	}
	if s.generator == nil {
		return failedClassification(errors.New("no text generator configured"))
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.generator.Complete(ctx, classificationSystemPrompt, classificationUserPrompt(title, content, url), ports.CompleteOptions{
		Model:    s.model,
		JSONMode: true,
	})
	if err != nil {
		return failedClassification(err)
	}

	c, err := ParseClassification(out)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("unparseable classification", "url", url, "response", truncateRunes(out, 300), "error", err)
		}
		return failedClassification(err)
	}

	return domain.Success(c)
}

func failedClassification(err error) domain.Result[domain.Classification] {
	return domain.Failure(domain.Classification{
		Label:     domain.LabelUnknown,
		Reasoning: fmt.Sprintf("classification failed: %v", err),
	}, domain.NewStageError(domain.StageClassification, err))
}

type classificationPayload struct {
	IsInteresting json.RawMessage `json:"is_interesting"`
	Reasoning     string          `json:"reasoning"`
	Pillar        string          `json:"pillar"`
	Anchor        string          `json:"anchor"`
}

// ParseClassification decodes a model response. It tries the whole text
// first, then the first brace-delimited object inside it.
func ParseClassification(text string) (domain.Classification, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Classification{}, errors.New("empty response")
	}

	var payload classificationPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		obj, ok := firstJSONObject(text)
		if !ok {
			return domain.Classification{}, fmt.Errorf("no JSON object in response: %w", err)
		}
		if err := json.Unmarshal([]byte(obj), &payload); err != nil {
			return domain.Classification{}, fmt.Errorf("decode embedded JSON: %w", err)
		}
	}

	interesting, err := coerceBool(payload.IsInteresting)
	if err != nil {
		return domain.Classification{}, err
	}

	return domain.Classification{
		Label:     domain.LabelFromBool(interesting),
		Reasoning: strings.TrimSpace(payload.Reasoning),
		Pillar:    strings.TrimSpace(payload.Pillar),
		Anchor:    strings.TrimSpace(payload.Anchor),
	}, nil
}

// coerceBool accepts JSON true/false and the strings "true"/"false".
func coerceBool(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, errors.New("is_interesting missing")
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}

	return false, fmt.Errorf("is_interesting has invalid value %s", string(raw))
}

// firstJSONObject returns the first balanced {...} substring, honouring
// string literals and escapes.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
