// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.



package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/tedrag"
	"github.com/poiesic/tedrag/config"
	"github.com/poiesic/tedrag/dataset"
	"github.com/poiesic/tedrag/ingestion"
	"github.com/poiesic/tedrag/smoke"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tedrag",
		Usage: "Question answering over TED talk transcripts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "Path to a .env file with API keys",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "reduce",
				Usage: "Write the first rows of the full dataset to a smaller CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "src",
						Usage: "Source CSV (defaults to ingestion.source)",
					},
					&cli.StringFlag{
						Name:  "dst",
						Usage: "Destination CSV (defaults to ingestion.dataset)",
					},
					&cli.IntFlag{
						Name:  "rows",
						Usage: "Number of data rows to keep (defaults to ingestion.rows)",
					},
				},
				Action: reduceCommand,
			},
			{
				Name:  "ingest",
				Usage: "Chunk, embed, and upsert a talk dataset into the vector index",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dataset",
						Usage: "CSV to ingest (defaults to ingestion.dataset)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Talks embedded concurrently (defaults to ingestion.workers)",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress on stderr",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Value: 10,
						Usage: "Report progress every N talks",
					},
				},
				Action: ingestCommand,
			},
			{
				Name:  "serve",
				Usage: "Run the question answering HTTP service",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "Listen host (defaults to server.host)",
					},
					&cli.IntFlag{
						Name:  "port",
						Usage: "Listen port (defaults to server.port or PORT)",
					},
				},
				Action: serveCommand,
			},
			{
				Name:  "ask",
				Usage: "Send a question to a running service and print the reply",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Value: smoke.DefaultBaseURL,
						Usage: "Base URL of the service",
					},
					&cli.StringFlag{
						Name:    "question",
						Aliases: []string{"q"},
						Usage:   "Question to ask",
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "Fetch /api/stats instead of asking",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 60 * time.Second,
						Usage: "Request timeout",
					},
				},
				Action: askCommand,
			},
			{
				Name:  "init-config",
				Usage: "Write the default configuration to a YAML file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Required: true,
						Usage:    "Output path",
					},
				},
				Action: initConfigCommand,
			},
		},
	}
}

// loadConfig reads the config file and environment. Validation is left to
// the commands that need a complete configuration.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadEnvFile(c.String("env-file")); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func reduceCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	src := valueOr(c.String("src"), cfg.Ingestion.Source)
	dst := valueOr(c.String("dst"), cfg.Ingestion.Dataset)
	rows := cfg.Ingestion.Rows
	if c.IsSet("rows") {
		rows = c.Int("rows")
	}
	if rows < 0 {
		return fmt.Errorf("rows must not be negative")
	}

	written, err := dataset.Reduce(src, dst, rows)
	if err != nil {
		return fmt.Errorf("reduce failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %d rows from %s to %s\n", written, src, dst)
	return nil
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("workers") {
		cfg.Ingestion.Workers = c.Int("workers")
	}
	if cfg.Ingestion.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	app, err := tedrag.NewApp(cfg, tedrag.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	opts := []ingestion.Option{ingestion.WithPoolSize(cfg.Ingestion.Workers)}
	if c.Bool("progress") {
		interval := c.Int("report-interval")
		if interval <= 0 {
			return fmt.Errorf("report-interval must be greater than 0")
		}
		opts = append(opts, ingestion.WithProgress(os.Stderr, interval))
	}
	pipeline, err := app.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	path := valueOr(c.String("dataset"), cfg.Ingestion.Dataset)
	fmt.Fprintf(os.Stderr, "Dataset: %s\n", path)
	fmt.Fprintf(os.Stderr, "Index: %s (%s, namespace %s)\n", cfg.Index.Name, cfg.Index.Backend, cfg.Index.Namespace)
	fmt.Fprintln(os.Stderr)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := pipeline.IngestFile(ctx, path)
	if summary != nil {
		fmt.Fprintln(c.App.Writer, summary.String())
		for _, failure := range summary.Failures {
			fmt.Fprintf(c.App.Writer, "  failed %s: %s\n", failure.TalkID, failure.Err)
		}
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	app, err := tedrag.NewApp(cfg, tedrag.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	srv, err := app.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}

func askCommand(c *cli.Context) error {
	client := smoke.NewClient(c.String("url"),
		smoke.WithTimeout(c.Duration("timeout")),
		smoke.WithLogger(slog.Default()),
	)

	var (
		resp *smoke.Response
		err  error
	)
	if c.Bool("stats") {
		resp, err = client.Stats(c.Context)
	} else {
		resp, err = client.Ask(c.Context, c.String("question"))
	}
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Status: %d\n", resp.StatusCode)
	fmt.Fprintln(c.App.Writer, smoke.Indent(resp.Body))
	if !resp.OK() {
		return errors.New("service returned a non-200 status")
	}
	return nil
}

func initConfigCommand(c *cli.Context) error {
	out := c.String("out")
	if err := config.Save(out, config.Default()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote default configuration to %s\n", out)
	return nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
