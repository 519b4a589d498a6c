package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsIngestor/internal/ports"
	"NewsIngestor/pkg/logger"
)

// ErrAlreadyStarted is returned by Start on a running scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// CronScheduler fires the job on a cron expression in a fixed timezone.
type CronScheduler struct {
	spec       string
	schedule   cron.Schedule
	location   *time.Location
	runOnStart bool
	log        *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	stopped chan struct{}
	watch   sync.WaitGroup
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// Options for NewCronScheduler.
type Options struct {
	Location   *time.Location
	RunOnStart bool
	Logger     *slog.Logger
}

// NewCronScheduler validates spec and returns an idle scheduler.
func NewCronScheduler(spec string, opts Options) (*CronScheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &CronScheduler{
		spec:       spec,
		schedule:   schedule,
		location:   loc,
		runOnStart: opts.RunOnStart,
		log:        log.With("component", "scheduler"),
	}, nil
}

// Start registers job and begins firing. Overlapping firings are skipped;
// a panicking job is recovered and logged.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return errors.New("scheduler job is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return ErrAlreadyStarted
	}

	cl := logger.NewCron(c.log)
	cr := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	id, err := cr.AddFunc(c.spec, func() { job(time.Now().In(c.location)) })
	if err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}
	c.cron = cr
	stopped := make(chan struct{})
	c.stopped = stopped
	cr.Start()

	c.log.Info("scheduler started", "cron", c.spec, "timezone", c.location.String(), "next", c.schedule.Next(time.Now().In(c.location)))

	if c.runOnStart {
		go cr.Entry(id).WrappedJob.Run()
	}

	c.watch.Add(1)
	go func() {
		defer c.watch.Done()
		select {
		case <-stopped:
			return
		case <-ctx.Done():
		}
		c.mu.Lock()
		current := c.cron == cr
		c.mu.Unlock()
		if current {
			_ = c.Stop(context.Background())
		}
	}()
	return nil
}

// Stop halts the schedule and waits for a running job until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	if c.stopped != nil {
		close(c.stopped)
		c.stopped = nil
	}
	c.mu.Unlock()

	if cr == nil {
		return nil
	}

	done := cr.Stop()
	select {
	case <-done.Done():
		c.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
