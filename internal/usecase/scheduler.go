package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"NewsIngestor/internal/domain"
	"NewsIngestor/internal/ports"
)

// Runner is a single ingestion run.
type Runner interface {
	Run(ctx context.Context) (domain.RunSummary, error)
}

// Scheduler wires the trigger driver with the pipeline use case. At most one
// run is in flight; triggers that arrive during a run share its result.
type Scheduler struct {
	driver ports.Scheduler
	runner Runner
	logger *slog.Logger
	group  singleflight.Group
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, runner Runner, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{driver: driver, runner: runner, logger: log}
}

// Trigger runs the pipeline now, or joins the run already in progress.
// shared is true when the result came from a run started by another trigger.
func (s *Scheduler) Trigger(ctx context.Context) (summary domain.RunSummary, shared bool, err error) {
	v, err, shared := s.group.Do("run", func() (interface{}, error) {
		return s.runner.Run(ctx)
	})
	if v != nil {
		summary = v.(domain.RunSummary)
	}
	return summary, shared, err
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled run triggered", "at", trigger)
		summary, shared, err := s.Trigger(ctx)
		if err != nil {
			s.logger.Error("scheduled run failed", "error", err)
			return
		}
		if shared {
			s.logger.Info("trigger joined run already in progress", "stored", summary.Stored)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
