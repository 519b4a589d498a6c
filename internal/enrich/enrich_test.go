package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/ports"
)

type fakeEmbedder struct {
	inputs []string
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, _ int) (domain.Embedding, error) {
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return domain.Embedding{}, f.err
	}
	return domain.Embedding{Vector: f.vector, Model: "fake-embed"}, nil
}

type fakeGenerator struct {
	reply string
	err   error
	calls []ports.CompleteOptions
}

func (f *fakeGenerator) Complete(_ context.Context, _, _ string, opts ports.CompleteOptions) (string, error) {
	f.calls = append(f.calls, opts)
	return f.reply, f.err
}

func TestEmbeddingStageSuccess(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	res := NewEmbeddingStage(emb, 0, 0, nil).Run(context.Background(), "Title", "Body")

	require.True(t, res.OK())
	assert.Equal(t, 3, res.Value.Dimensions)
	assert.Equal(t, "fake-embed", res.Value.Model)
	assert.Equal(t, []string{"Title\n\nBody"}, emb.inputs)
}

func TestEmbeddingStageTruncates(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vector: []float32{1}}
	res := NewEmbeddingStage(emb, 5, 0, nil).Run(context.Background(), "", "héllo wörld")

	require.True(t, res.OK())
	assert.Equal(t, []string{"héllo"}, emb.inputs)
}

func TestEmbeddingStageEmptyInputIsValidationError(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vector: []float32{1}}
	res := NewEmbeddingStage(emb, 0, 0, nil).Run(context.Background(), "  ", "\n")

	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, domain.ErrEmptyInput)
	assert.Nil(t, res.Value)
	assert.Empty(t, emb.inputs)
}

func TestEmbeddingStageProviderFailures(t *testing.T) {
	t.Parallel()

	for name, emb := range map[string]*fakeEmbedder{
		"error": {err: errors.New("503")},
		"empty": {vector: nil},
	} {
		res := NewEmbeddingStage(emb, 0, 0, nil).Run(context.Background(), "T", "B")
		require.False(t, res.OK(), name)

		var se *domain.StageError
		require.ErrorAs(t, res.Err, &se, name)
		assert.Equal(t, domain.StageEmbedding, se.Stage)
		assert.False(t, errors.Is(res.Err, domain.ErrEmptyInput), name)
		assert.Nil(t, res.Value, name)
	}
}

func TestTransformStage(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: "  What happened?\nA bridge opened.  "}
	res := NewTransformStage(gen, "rewriter", 0, nil).Run(context.Background(), "Bridge", "A bridge opened.", "https://x/bridge")

	require.True(t, res.OK())
	assert.Equal(t, "What happened?\nA bridge opened.", res.Value)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "rewriter", gen.calls[0].Model)
	assert.False(t, gen.calls[0].JSONMode)
}

func TestTransformStageKeepsRawOnFailure(t *testing.T) {
	t.Parallel()

	for name, gen := range map[string]*fakeGenerator{
		"error": {err: errors.New("rate limited")},
		"empty": {reply: "   "},
	} {
		res := NewTransformStage(gen, "", 0, nil).Run(context.Background(), "T", "raw text", "u")
		require.False(t, res.OK(), name)
		assert.Equal(t, "raw text", res.Value, name)
	}
}

func TestClassificationStage(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{reply: `{"is_interesting": true, "reasoning": "new subsidy", "pillar": "economy & livelihoods", "anchor": "PM-KISAN"}`}
	res := NewClassificationStage(gen, "judge", 0, nil).Run(context.Background(), "T", "B", "u")

	require.True(t, res.OK())
	assert.Equal(t, domain.LabelInteresting, res.Value.Label)
	assert.Equal(t, "PM-KISAN", res.Value.Anchor)
	require.Len(t, gen.calls, 1)
	assert.True(t, gen.calls[0].JSONMode)
	assert.Equal(t, "judge", gen.calls[0].Model)
}

func TestClassificationFailureIsUnknownNotFalse(t *testing.T) {
	t.Parallel()

	for name, gen := range map[string]*fakeGenerator{
		"provider": {err: errors.New("timeout")},
		"garbage":  {reply: "I think it is interesting"},
		"badlabel": {reply: `{"is_interesting": "maybe"}`},
	} {
		res := NewClassificationStage(gen, "", 0, nil).Run(context.Background(), "T", "B", "u")
		require.False(t, res.OK(), name)
		assert.Equal(t, domain.LabelUnknown, res.Value.Label, name)
		assert.True(t, strings.HasPrefix(res.Value.Reasoning, "classification failed"), name)
	}
}

func TestParseClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want domain.Label
	}{
		{"native true", `{"is_interesting": true, "reasoning": "r"}`, domain.LabelInteresting},
		{"native false", `{"is_interesting": false}`, domain.LabelNotInteresting},
		{"string true", `{"is_interesting": "true"}`, domain.LabelInteresting},
		{"string False", `{"is_interesting": " False "}`, domain.LabelNotInteresting},
		{"fenced", "```json\n{\"is_interesting\": true, \"reasoning\": \"uses {braces} in text\"}\n```", domain.LabelInteresting},
		{"prose around", `Sure! Here you go: {"is_interesting": false, "reasoning": "gossip"} Hope it helps {}`, domain.LabelNotInteresting},
	}

	for _, tc := range cases {
		got, err := ParseClassification(tc.in)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got.Label, tc.name)
	}

	for _, bad := range []string{"", "nope", `{"reasoning": "no label"}`, `{"is_interesting": 1}`, `{"is_interesting": true`} {
		_, err := ParseClassification(bad)
		assert.Error(t, err, bad)
	}
}
