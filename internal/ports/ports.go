package ports

import (
	"context"
	"time"

	"NewsIngestor/internal/domain"
)

// Fetcher retrieves a page body within a bounded timeout. Failures are *domain.FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Sink persists articles for deduplication and retrieval.
type Sink interface {
	Exists(ctx context.Context, sourceID string) (bool, error)
	Insert(ctx context.Context, article domain.Article) (domain.Article, error)
	// UpdateClassification merges patch into the stored metadata; unknown ids yield domain.ErrNotFound.
	UpdateClassification(ctx context.Context, id string, label domain.Label, patch map[string]any) (domain.Article, error)
}

// Embedder turns text into a vector. Implementations must not exceed maxLength runes of input.
type Embedder interface {
	Embed(ctx context.Context, text string, maxLength int) (domain.Embedding, error)
}

// CompleteOptions tunes a single generation request.
type CompleteOptions struct {
	Model    string
	JSONMode bool
}

// TextGenerator talks to a generative model.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts CompleteOptions) (string, error)
}

// Notifier streams run digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
