package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/api"
	"github.com/MikeSquared-Agency/lectern/internal/cache"
	"github.com/MikeSquared-Agency/lectern/internal/config"
	"github.com/MikeSquared-Agency/lectern/internal/hermes"
	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/processor"
	"github.com/MikeSquared-Agency/lectern/internal/slack"
	"github.com/MikeSquared-Agency/lectern/internal/store"
)

func main() {
	_ = godotenv.Load(".env", ".env.local")

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("lectern starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Knowledge base
	kb, err := knowledge.Load(cfg.KnowledgeBase)
	if err != nil {
		slog.Error("failed to load knowledge base", "path", cfg.KnowledgeBase, "error", err)
		os.Exit(1)
	}
	slog.Info("knowledge base loaded", "concepts", len(kb.Concepts), "golden_patterns", len(kb.GoldenPatterns))

	analyzer := analysis.New(kb, slog.Default())

	// Database (optional: without it analyses are cached but not stored)
	var (
		procStore processor.Store
		reader    api.AnalysisReader
	)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		procStore = db
		reader = db
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, analyses will not be persisted")
	}

	// Report cache
	c := cache.New(ctx, cfg.RedisURL, slog.Default())
	if rc, ok := c.(*cache.RedisCache); ok {
		defer rc.Close()
		slog.Info("redis cache connected")
	}
	reports := cache.NewReports(c, cfg.CacheTTL)

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Slack poster (optional)
	var notifier processor.Notifier
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		notifier = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, lesson digests disabled")
	}

	// Processor: the main pipeline
	proc := processor.New(analyzer, reports, procStore, hermesClient, notifier, cfg.TranscriptDir, slog.Default())

	if err := hermesClient.Subscribe(hermes.SubjectTranscriptStored, proc.HandleTranscriptStored); err != nil {
		slog.Error("failed to subscribe to transcript events", "error", err)
		os.Exit(1)
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, kb, proc, reader, hermesClient, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := hermesClient.Publish(hermes.SubjectAgentRegistered, hermes.AgentRegistered{
		AgentID:      "lectern",
		Name:         "Lectern",
		Capabilities: api.Capabilities,
		Version:      api.Version,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("lectern ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown error", "error", err)
	}
	cancel()
	slog.Info("lectern stopped")
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
