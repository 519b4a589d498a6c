package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"NewsIngestor/internal/config"
	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/enrich"
	"NewsIngestor/internal/infrastructure/fetch"
	"NewsIngestor/internal/infrastructure/llm"
	"NewsIngestor/internal/infrastructure/ml"
	"NewsIngestor/internal/infrastructure/parser"
	"NewsIngestor/internal/infrastructure/scheduler"
	"NewsIngestor/internal/infrastructure/storage"
	"NewsIngestor/internal/infrastructure/telegram"
	"NewsIngestor/internal/logging"
	"NewsIngestor/internal/ports"
	"NewsIngestor/internal/scanner"
	"NewsIngestor/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	closers   []func() error
}

// New builds the application: sources, sink, providers, stages, pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewNewsScanner(nil, baseLogger.With("component", "scanner.news")))

	sources, err := parser.BuildSources(registry, cfg.Sites, baseLogger.With("component", "sources"))
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}

	sink, err := a.openSink(ctx)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewHTTPFetcher(nil, cfg.Scraper.RequestTimeout, cfg.Scraper.UserAgent, baseLogger.With("component", "fetcher"))

	deps := usecase.PipelineDeps{
		Sources: sources,
		Fetcher: fetcher,
		Sink:    sink,
		Logger:  baseLogger.With("component", "pipeline"),
	}
	if err := a.wireStages(&deps); err != nil {
		_ = a.Close()
		return nil, err
	}

	notifier := telegram.NewNotifier(cfg.Notifications.Telegram, baseLogger.With("component", "telegram"))
	if notifier.Enabled() {
		deps.Notifier = notifier
	}

	a.pipeline = usecase.NewPipeline(usecase.Config{
		RequestTimeout:       cfg.Scraper.RequestTimeout,
		Delay:                cfg.Scraper.Delay,
		MaxArticlesPerSource: cfg.Scraper.MaxArticlesPerSource,
	}, deps)

	driver, err := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, scheduler.Options{
		Location:   cfg.Scheduler.Location(),
		RunOnStart: cfg.Scheduler.RunOnStart,
		Logger:     baseLogger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.scheduler = usecase.NewScheduler(driver, a.pipeline, baseLogger.With("component", "scheduler"))

	baseLogger.Info("application ready",
		"sources", len(sources),
		"driver", cfg.Database.Driver,
		"embedding", deps.Embedding != nil,
		"llm", deps.Classify != nil,
		"telegram", deps.Notifier != nil)
	return a, nil
}

func (a *Application) openSink(ctx context.Context) (ports.Sink, error) {
	switch a.cfg.Database.Driver {
	case config.DriverMemory:
		return storage.NewMemoryRepository(), nil

	case config.DriverBadger:
		repo, err := storage.OpenBadger(a.cfg.Database.Path, false, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil

	case config.DriverPostgres, "":
		db, err := sql.Open("postgres", a.cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", a.cfg.Database.Driver)
	}
}

// wireStages builds the enrichment stages. Without credentials for a hosted
// provider the generative stages are left out and articles keep extracted text.
func (a *Application) wireStages(deps *usecase.PipelineDeps) error {
	cfg := a.cfg.LLM
	timeout := a.cfg.Scraper.RequestTimeout
	log := a.logger.With("component", "enrich")

	var embedder ports.Embedder
	switch cfg.EmbeddingBackend {
	case config.EmbeddingBackendInference:
		embedder = ml.NewClient(a.cfg.ML.InferenceURL, a.cfg.ML.APIKey, cfg.EmbeddingModel, timeout)
	case config.EmbeddingBackendOpenAI, "":
		if llmConfigured(cfg) {
			e, err := llm.NewEmbedder(cfg, a.logger.With("component", "embedder"))
			if err != nil {
				return err
			}
			embedder = e
		}
	default:
		return fmt.Errorf("unknown embedding backend %q", cfg.EmbeddingBackend)
	}
	if embedder != nil {
		deps.Embedding = enrich.NewEmbeddingStage(embedder, cfg.EmbeddingMaxLength, timeout, log)
	}

	if !llmConfigured(cfg) {
		a.logger.Warn("no LLM credentials; transform and classification disabled")
		return nil
	}
	gen, err := llm.NewChatGPTClient(cfg, a.logger.With("component", "llm"))
	if err != nil {
		return err
	}
	deps.Transform = enrich.NewTransformStage(gen, cfg.TransformModel, timeout, log)
	deps.Classify = enrich.NewClassificationStage(gen, cfg.ClassifierModel, timeout, log)
	return nil
}

// llmConfigured is true for a keyed provider or a self-hosted OpenAI-compatible endpoint.
func llmConfigured(cfg config.LLMConfig) bool {
	return cfg.APIKey != "" || (cfg.BaseURL != "" && !strings.Contains(cfg.BaseURL, "api.openai.com"))
}

// RunOnce performs a single ingestion run, joining one already in progress.
func (a *Application) RunOnce(ctx context.Context) (domain.RunSummary, error) {
	summary, _, err := a.scheduler.Trigger(ctx)
	return summary, err
}

// Serve runs on the configured schedule until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// Run serves when scheduling is enabled and otherwise runs once.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Scheduler.Enabled {
		return a.Serve(ctx)
	}
	_, err := a.RunOnce(ctx)
	return err
}

// State exposes the orchestrator state.
func (a *Application) State() usecase.State {
	return a.pipeline.State()
}

// Close releases the sink.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
