package domain

import "time"

// CandidateLink is a single entry found on a listing page.
type CandidateLink struct {
	Title string
	URL   string
}

// ArticleFragment is what the extractor recovers from an article page.
type ArticleFragment struct {
	Title       string
	Content     string
	Author      string
	PublishedAt time.Time
}

// Embedding is a vector together with the model that produced it.
type Embedding struct {
	Vector     []float32
	Model      string
	Dimensions int
}

// Article is the unit of work and the unit of storage.
type Article struct {
	ID          string
	Source      string
	SourceID    string
	Title       string
	Content     string
	URL         string
	Author      *string
	PublishedAt time.Time
	Embedding   *Embedding
	Interest    Label
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Metadata keys written by the pipeline.
const (
	MetaCategory            = "category"
	MetaScrapedAt           = "scraped_at"
	MetaSourceURL           = "source_url"
	MetaContentTransformed  = "content_transformed"
	MetaEmbeddingModel      = "embedding_model"
	MetaEmbeddingDimensions = "embedding_dimensions"
	MetaReasoning           = "reasoning"
	MetaPillar              = "pillar"
	MetaAnchor              = "anchor"
	MetaClassifiedAt        = "classified_at"
)

// Classification is the outcome of the relevance stage.
type Classification struct {
	Label     Label
	Reasoning string
	Pillar    string
	Anchor    string
}

// MetadataPatch renders the classification provenance merged into article metadata.
func (c Classification) MetadataPatch(at time.Time) map[string]any {
	patch := map[string]any{
		MetaReasoning:    c.Reasoning,
		MetaClassifiedAt: at.UTC().Format(time.RFC3339),
	}
	if c.Pillar != "" {
		patch[MetaPillar] = c.Pillar
	}
	if c.Anchor != "" {
		patch[MetaAnchor] = c.Anchor
	}
	return patch
}

// MergeMetadata returns base extended with patch. Neither input is modified.
func MergeMetadata(base, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// RunSummary captures what a single pipeline run did.
type RunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Elapsed    time.Duration

	Found       int
	New         int
	Stored      int
	Interesting int

	FetchFailures          int
	ExtractionFailures     int
	EmbeddingFailures      int
	TransformFailures      int
	ClassificationFailures int
	PersistenceFailures    int

	SourceErrors []string
}

// LogArgs flattens the summary for slog.
func (s RunSummary) LogArgs() []any {
	return []any{
		"found", s.Found,
		"new", s.New,
		"stored", s.Stored,
		"interesting", s.Interesting,
		"fetch_failures", s.FetchFailures,
		"extraction_failures", s.ExtractionFailures,
		"embedding_failures", s.EmbeddingFailures,
		"transform_failures", s.TransformFailures,
		"classification_failures", s.ClassificationFailures,
		"persistence_failures", s.PersistenceFailures,
		"source_errors", len(s.SourceErrors),
		"elapsed", s.Elapsed,
	}
}
