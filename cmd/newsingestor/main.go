package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"NewsIngestor/internal/app"
	"NewsIngestor/internal/config"
	"NewsIngestor/internal/logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "newsingestor",
		Usage: "Crawl news listings, enrich new articles and store them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration",
				EnvVars: []string{"NEWS_INGESTOR_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the pipeline once and exit",
				Action: runCommand,
			},
			{
				Name:   "serve",
				Usage:  "Run the pipeline on the configured cron schedule",
				Action: serveCommand,
			},
		},
		Action: defaultCommand,
	}
}

func loadConfig(c *cli.Context) config.Config {
	cfg := config.LoadFrom(c.String("config"))
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg
}

func withApplication(c *cli.Context, fn func(ctx context.Context, a *app.Application) error) error {
	cfg := loadConfig(c)
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	if err := fn(ctx, application); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}

func runCommand(c *cli.Context) error {
	return withApplication(c, func(ctx context.Context, a *app.Application) error {
		_, err := a.RunOnce(ctx)
		return err
	})
}

func serveCommand(c *cli.Context) error {
	return withApplication(c, func(ctx context.Context, a *app.Application) error {
		return a.Serve(ctx)
	})
}

// defaultCommand serves when scheduling is enabled in config, otherwise runs once.
func defaultCommand(c *cli.Context) error {
	return withApplication(c, func(ctx context.Context, a *app.Application) error {
		return a.Run(ctx)
	})
}
