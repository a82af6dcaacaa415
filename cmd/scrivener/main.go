package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/quillhq/scrivener/internal/api"
	"github.com/quillhq/scrivener/internal/auth"
	"github.com/quillhq/scrivener/internal/chat"
	"github.com/quillhq/scrivener/internal/config"
	"github.com/quillhq/scrivener/internal/events"
	"github.com/quillhq/scrivener/internal/extractor"
	"github.com/quillhq/scrivener/internal/invoice"
	"github.com/quillhq/scrivener/internal/llm"
	"github.com/quillhq/scrivener/internal/objstore"
	"github.com/quillhq/scrivener/internal/sqlrunner"
	"github.com/quillhq/scrivener/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("scrivener starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Model provider
	if cfg.OpenAIAPIKey == "" {
		slog.Error("OPENAI_API_KEY is required")
		os.Exit(1)
	}
	model := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	slog.Info("model client ready", "model", cfg.OpenAIModel)

	// Identity provider
	if cfg.AuthURL == "" {
		slog.Error("AUTH_URL is required")
		os.Exit(1)
	}
	verifier := auth.NewClient(cfg.AuthURL, cfg.AuthAnonKey)

	// Object storage
	if cfg.StorageURL == "" {
		slog.Error("STORAGE_URL is required")
		os.Exit(1)
	}
	objects := objstore.NewClient(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket)

	// Event publication (optional — scrivener works without NATS, just no events)
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		publisher, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured — running without event publication")
	}

	// Services
	chatSvc := chat.NewService(db, model, sqlrunner.Placeholder{}, publisher, slog.Default())
	fields := extractor.New(model, slog.Default())
	invoiceSvc := invoice.NewService(db, objects, fields, invoice.PlaceholderText{}, publisher, cfg.MaxUploadBytes, slog.Default())

	// HTTP API
	srv := api.NewServer(cfg.Port, verifier, chatSvc, invoiceSvc, cfg.MaxUploadBytes, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("scrivener ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("scrivener stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
