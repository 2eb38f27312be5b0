package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/askdb/askdb/internal/api"
	"github.com/askdb/askdb/internal/api/uistatic"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/db"
	"github.com/askdb/askdb/internal/export"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlexec"
	s3store "github.com/askdb/askdb/internal/storage/s3"
)

func main() {
	// A local .env is a convenience for development; missing files are fine.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("askdb-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger, closeLog, err := observability.NewLogger(cfg, os.Stdout)
	if err != nil {
		slog.Error("failed to initialize logger", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	database, err := db.Open(context.Background(), cfg.Database)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	introspector := schema.NewIntrospector(database, cfg.Database.Schema)
	executor := sqlexec.New(database, sqlexec.Options{
		RowLimit:    cfg.Exec.RowLimit,
		AllowWrites: cfg.Exec.AllowWrites,
		Timeout:     cfg.Exec.Timeout,
	})

	// Translation is optional: without an API key the service still serves
	// schema inspection and direct query execution.
	var translator nl2sql.Translator
	if cfg.AI.APIKey != "" {
		switch cfg.AI.Provider {
		case "openai":
			translator, err = nl2sql.NewOpenAITranslator(nl2sql.OpenAIConfig{
				BaseURL:     cfg.AI.BaseURL,
				APIKey:      cfg.AI.APIKey,
				Model:       cfg.AI.Model,
				Temperature: cfg.AI.Temperature,
				Timeout:     cfg.AI.Timeout,
			})
		default:
			translator, err = nl2sql.NewGeminiTranslator(nl2sql.GeminiConfig{
				BaseURL:     cfg.AI.BaseURL,
				APIKey:      cfg.AI.APIKey,
				Model:       cfg.AI.Model,
				Temperature: cfg.AI.Temperature,
				Timeout:     cfg.AI.Timeout,
			})
		}
		if err != nil {
			// The service still serves schema and direct queries without a
			// translator.
			logger.Error("failed to initialize query translator; translation disabled", slog.Any("error", err))
			translator = nil
		}
	} else {
		logger.Warn("no AI API key configured; translation endpoints are disabled")
	}

	service := &pipeline.Service{
		Schema:     introspector,
		Translator: translator,
		Executor:   executor,
		Logger:     logger,
	}

	deps := api.Dependencies{
		Logger:            logger,
		Readiness:         introspector.HealthCheck,
		DependencyTimeout: time.Second,
		Schema:            introspector,
		Pipeline:          service,
		Executor:          executor,
		UI:                uistatic.Handler(),
	}
	if cfg.Export.ArchiveEnabled {
		store, err := s3store.New(context.Background(), cfg.Export)
		if err != nil {
			logger.Error("failed to initialize export archive store", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Archiver = export.NewArchiver(store)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
