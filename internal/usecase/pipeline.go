package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/enrich"
	"NewsIngestor/internal/ports"
	"NewsIngestor/internal/scanner"
)

// Config bounds a single run.
type Config struct {
	RequestTimeout       time.Duration
	Delay                time.Duration
	MaxArticlesPerSource int
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
// Nil stages are skipped; a nil Notifier disables the digest.
type PipelineDeps struct {
	Sources   []scanner.Source
	Fetcher   ports.Fetcher
	Sink      ports.Sink
	Embedding *enrich.EmbeddingStage
	Transform *enrich.TransformStage
	Classify  *enrich.ClassificationStage
	Notifier  ports.Notifier
	Logger    *slog.Logger
	Now       func() time.Time
}

// Pipeline implements the news-ingestion workflow.
type Pipeline struct {
	cfg       Config
	sources   []scanner.Source
	fetcher   ports.Fetcher
	sink      ports.Sink
	dedup     *Deduplicator
	embedding *enrich.EmbeddingStage
	transform *enrich.TransformStage
	classify  *enrich.ClassificationStage
	notifier  ports.Notifier
	logger    *slog.Logger
	now       func() time.Time

	state atomic.Int32
}

// NewPipeline constructs the orchestration component.
func NewPipeline(cfg Config, deps PipelineDeps) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		cfg:       cfg,
		sources:   deps.Sources,
		fetcher:   deps.Fetcher,
		sink:      deps.Sink,
		dedup:     NewDeduplicator(deps.Sink, cfg.RequestTimeout),
		embedding: deps.Embedding,
		transform: deps.Transform,
		classify:  deps.Classify,
		notifier:  deps.Notifier,
		logger:    log,
		now:       now,
	}
}

// State reports where the current run is; StateIdle between runs.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// Run crawls every source once, sequentially. Item and source failures are
// counted in the summary; only context cancellation ends the run early.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	if p.fetcher == nil || p.sink == nil {
		return domain.RunSummary{}, errors.New("pipeline requires a fetcher and a sink")
	}

	summary := domain.RunSummary{StartedAt: p.now().UTC()}
	pace := newPacer(p.cfg.Delay)
	defer p.setState(StateIdle)

	p.logger.Info("run started", "sources", len(p.sources))

	var runErr error
	for _, src := range p.sources {
		if err := p.processSource(ctx, pace, src, &summary); err != nil {
			runErr = err
			break
		}
	}

	p.setState(StateSummarizing)
	summary.FinishedAt = p.now().UTC()
	summary.Elapsed = summary.FinishedAt.Sub(summary.StartedAt)

	if runErr != nil {
		p.logger.Warn("run interrupted", append(summary.LogArgs(), "error", runErr)...)
		return summary, runErr
	}

	p.logger.Info("run finished", summary.LogArgs()...)
	p.notify(ctx, summary)
	return summary, nil
}

// processSource returns an error only when ctx is done.
func (p *Pipeline) processSource(ctx context.Context, pace *pacer, src scanner.Source, summary *domain.RunSummary) error {
	p.setState(StateFetchingSources)
	log := p.logger.With("site", src.SiteName, "category", src.Category)

	doc, err := p.fetchDocument(ctx, pace, src.ListingURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary.SourceErrors = append(summary.SourceErrors, fmt.Sprintf("%s %s: %v", src.SiteName, src.ListingURL, err))
		log.Warn("listing unavailable, skipping source", "url", src.ListingURL, "error", err)
		return nil
	}

	links := src.Scanner.ExtractListing(doc, src.ListingURL)
	if limit := p.cfg.MaxArticlesPerSource; limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	summary.Found += len(links)
	log.Debug("listing extracted", "url", src.ListingURL, "links", len(links))

	for _, link := range links {
		if err := p.processLink(ctx, pace, src, link, summary); err != nil {
			return err
		}
	}
	return nil
}

// processLink returns an error only when ctx is done.
func (p *Pipeline) processLink(ctx context.Context, pace *pacer, src scanner.Source, link domain.CandidateLink, summary *domain.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.setState(StateDeduplicating)
	sourceID := domain.SourceID(src.SiteName, link.URL)
	log := p.logger.With("site", src.SiteName, "source_id", sourceID, "url", link.URL)

	isNew, err := p.dedup.IsNew(ctx, sourceID)
	if err != nil {
		summary.PersistenceFailures++
		log.Warn("dedup check failed, skipping", "error", err)
		return nil
	}
	if !isNew {
		log.Debug("already stored")
		return nil
	}
	summary.New++

	p.setState(StateEnriching)
	doc, err := p.fetchDocument(ctx, pace, link.URL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var extractErr *domain.ExtractionError
		if errors.As(err, &extractErr) {
			summary.ExtractionFailures++
			log.Warn("article page unparseable", "error", err)
			return nil
		}
		summary.FetchFailures++
		log.Warn("article fetch failed", "error", err)
		return nil
	}

	fragment, err := src.Scanner.ExtractArticle(doc, link)
	if err != nil {
		summary.ExtractionFailures++
		log.Warn("extraction failed", "error", err)
		return nil
	}

	article := p.newArticle(src, link, sourceID, fragment)
	p.enrich(ctx, &article, summary, log)

	stored, err := p.insert(ctx, article)
	if err != nil {
		summary.PersistenceFailures++
		log.Warn("insert failed", "error", err)
		return nil
	}
	summary.Stored++

	if p.classify == nil {
		return nil
	}

	result := p.classify.Run(ctx, stored.Title, stored.Content, stored.URL)
	if !result.OK() {
		summary.ClassificationFailures++
		log.Warn("classification failed, label left unknown", "error", result.Err)
	}

	updated, err := p.updateClassification(ctx, stored.ID, result.Value)
	if err != nil {
		summary.PersistenceFailures++
		log.Warn("classification update failed", "id", stored.ID, "error", err)
		return nil
	}
	if updated.Interest == domain.LabelInteresting {
		summary.Interesting++
	}
	log.Info("article stored", "id", updated.ID, "interesting", updated.Interest.String())
	return nil
}

func (p *Pipeline) newArticle(src scanner.Source, link domain.CandidateLink, sourceID string, fragment domain.ArticleFragment) domain.Article {
	now := p.now().UTC()

	var author *string
	if fragment.Author != "" {
		a := fragment.Author
		author = &a
	}
	published := fragment.PublishedAt
	if published.IsZero() {
		published = now
	}

	return domain.Article{
		Source:      src.SiteName,
		SourceID:    sourceID,
		Title:       fragment.Title,
		Content:     fragment.Content,
		URL:         link.URL,
		Author:      author,
		PublishedAt: published,
		Interest:    domain.LabelUnknown,
		Metadata: map[string]any{
			domain.MetaCategory:           src.Category,
			domain.MetaScrapedAt:          now.Format(time.RFC3339),
			domain.MetaSourceURL:          src.ListingURL,
			domain.MetaContentTransformed: false,
		},
	}
}

// enrich runs the embedding and transform stages. The embedding is always
// taken from the extracted content, before the transform replaces it.
func (p *Pipeline) enrich(ctx context.Context, article *domain.Article, summary *domain.RunSummary, log *slog.Logger) {
	raw := article.Content

	if p.embedding != nil {
		result := p.embedding.Run(ctx, article.Title, raw)
		if result.OK() {
			article.Embedding = result.Value
			article.Metadata[domain.MetaEmbeddingModel] = result.Value.Model
			article.Metadata[domain.MetaEmbeddingDimensions] = result.Value.Dimensions
		} else {
			summary.EmbeddingFailures++
			log.Warn("embedding failed, storing without vector", "error", result.Err)
		}
	}

	if p.transform != nil {
		result := p.transform.Run(ctx, article.Title, raw, article.URL)
		if result.OK() {
			article.Content = result.Value
			article.Metadata[domain.MetaContentTransformed] = true
		} else {
			summary.TransformFailures++
			log.Warn("transform failed, keeping extracted text", "error", result.Err)
		}
	}
}

func (p *Pipeline) insert(ctx context.Context, article domain.Article) (domain.Article, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()
	return p.sink.Insert(ctx, article)
}

func (p *Pipeline) updateClassification(ctx context.Context, id string, c domain.Classification) (domain.Article, error) {
	ctx, cancel := p.bounded(ctx)
	defer cancel()
	return p.sink.UpdateClassification(ctx, id, c.Label, c.MetadataPatch(p.now()))
}

func (p *Pipeline) fetchDocument(ctx context.Context, pace *pacer, url string) (*goquery.Document, error) {
	if err := pace.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ExtractionError{URL: url, Reason: fmt.Sprintf("parse html: %v", err)}
	}
	return doc, nil
}

func (p *Pipeline) notify(ctx context.Context, summary domain.RunSummary) {
	if p.notifier == nil {
		return
	}
	ctx, cancel := p.bounded(ctx)
	defer cancel()
	if err := p.notifier.PublishDigest(ctx, FormatDigest(summary)); err != nil {
		p.logger.Warn("digest delivery failed", "error", err)
	}
}

func (p *Pipeline) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.cfg.RequestTimeout)
}
