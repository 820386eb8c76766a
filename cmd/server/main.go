package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/salescope/config"
	"github.com/alejandrodnm/salescope/internal/adapters/httpapi"
	"github.com/alejandrodnm/salescope/internal/adapters/llm"
	"github.com/alejandrodnm/salescope/internal/adapters/storage"
	"github.com/alejandrodnm/salescope/internal/analysis"
	"github.com/alejandrodnm/salescope/internal/assistant"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	addr := flag.String("addr", "", "listen address (overrides http.addr)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Storage.Driver,
		DSN:    cfg.Storage.DSN,
		Postgres: storage.PostgresConfig{
			MaxConns:       cfg.Storage.MaxConns,
			ConnectTimeout: 10 * time.Second,
		},
	})
	if err != nil {
		slog.Error("failed to open storage", "err", err, "driver", cfg.Storage.Driver)
		os.Exit(1)
	}
	defer store.Close()

	facade := analysis.New(store, store, time.Now)
	deps := httpapi.Deps{
		Analyzer:     facade,
		Runs:         store,
		BatchWorkers: cfg.Analysis.BatchWorkers,
	}
	if cfg.LLMEnabled() {
		router := llm.NewClient(llm.Config{
			APIKey:            cfg.LLM.APIKey,
			BaseURL:           cfg.LLM.BaseURL,
			Model:             cfg.LLM.Model,
			RequestsPerSecond: cfg.LLM.RequestsPerSecond,
			Timeout:           cfg.LLMTimeout(),
		})
		deps.Assistant = assistant.New(router, facade, cfg.LLM.ConfidenceThreshold)
	}

	app := httpapi.New(deps)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down http server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Warn("shutdown error", "err", err)
		}
	}()

	slog.Info("salescope server starting",
		"addr", cfg.HTTP.Addr,
		"storage", cfg.Storage.Driver,
		"assistant", deps.Assistant != nil,
	)
	if err := app.Listen(cfg.HTTP.Addr); err != nil {
		slog.Error("http server exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("salescope server stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
