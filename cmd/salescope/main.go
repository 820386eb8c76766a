package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/salescope/config"
	"github.com/alejandrodnm/salescope/internal/adapters/llm"
	"github.com/alejandrodnm/salescope/internal/adapters/notify"
	"github.com/alejandrodnm/salescope/internal/adapters/storage"
	"github.com/alejandrodnm/salescope/internal/analysis"
	"github.com/alejandrodnm/salescope/internal/assistant"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	seed := flag.String("seed", "", "load products from a JSON file before running (\"-\" uses storage.seed_file)")
	tool := flag.String("tool", "", "run one analysis and exit: lifecycle|seasonality|demand")
	product := flag.String("product", "", "product id or name for -tool")
	start := flag.String("start", "", "start date for -tool demand (ISO 8601)")
	end := flag.String("end", "", "end date for -tool demand (ISO 8601)")
	ask := flag.String("ask", "", "answer one free-form request through the assistant and exit")
	runs := flag.Int("runs", 0, "print the N most recent analysis runs and exit")
	listTools := flag.Bool("tools", false, "list available analyses and exit")
	format := flag.String("format", "table", "output format: table|json")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("log-format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	outFormat, err := notify.ParseFormat(*format)
	if err != nil {
		slog.Error("invalid output format", "err", err)
		os.Exit(2)
	}

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

	if *seed != "" {
		path := *seed
		if path == "-" {
			path = cfg.Storage.SeedFile
		}
		if err := seedProducts(ctx, store, path); err != nil {
			slog.Error("seed failed", "err", err, "path", path)
			os.Exit(1)
		}
	}

	a := &app{
		facade:   analysis.New(store, store, time.Now),
		runs:     store,
		reporter: notify.NewConsole(outFormat),
		out:      os.Stdout,
	}
	if cfg.LLMEnabled() {
		router := llm.NewClient(llm.Config{
			APIKey:            cfg.LLM.APIKey,
			BaseURL:           cfg.LLM.BaseURL,
			Model:             cfg.LLM.Model,
			RequestsPerSecond: cfg.LLM.RequestsPerSecond,
			Timeout:           cfg.LLMTimeout(),
		})
		a.assistant = assistant.New(router, a.facade, cfg.LLM.ConfidenceThreshold)
	} else {
		slog.Debug("assistant disabled: no OPENAI_API_KEY or llm.base_url")
	}

	var runErr error
	switch {
	case *listTools:
		runErr = a.printTools()
	case *tool != "":
		runErr = a.runTool(ctx, *tool, *product, *start, *end)
	case *ask != "":
		runErr = a.ask(ctx, *ask)
	case *runs > 0:
		runErr = a.printRuns(ctx, *runs)
	case *seed != "":
		// solo seed
	default:
		runErr = a.menu(ctx, os.Stdin)
	}
	if runErr != nil {
		slog.Error("salescope failed", "err", runErr)
		os.Exit(1)
	}
}

func seedProducts(ctx context.Context, store storage.Store, path string) error {
	if path == "" {
		return fmt.Errorf("no seed file: pass -seed FILE or set storage.seed_file")
	}
	products, err := storage.LoadProductsFile(path)
	if err != nil {
		return err
	}
	if err := store.SaveProducts(ctx, products); err != nil {
		return err
	}
	slog.Info("products seeded", "count", len(products), "path", path)
	return nil
}

// setupLogger escribe a stderr para no mezclar logs con los reportes en stdout.
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
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
