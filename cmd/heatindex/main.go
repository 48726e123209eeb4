package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/heat-index-etl/internal/adapter/archive"
	httpadapter "github.com/couchcryptid/heat-index-etl/internal/adapter/http"
	"github.com/couchcryptid/heat-index-etl/internal/config"
	"github.com/couchcryptid/heat-index-etl/internal/credentials"
	"github.com/couchcryptid/heat-index-etl/internal/observability"
	"github.com/couchcryptid/heat-index-etl/internal/pipeline"
	"github.com/couchcryptid/heat-index-etl/internal/render"
	"github.com/couchcryptid/heat-index-etl/internal/scheduler"
	"github.com/couchcryptid/heat-index-etl/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is a local-development convenience; absence is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	cred, err := credentials.Resolve(cfg.SecretFile, cfg.KeyFile)
	if err != nil {
		logger.Error("failed to resolve service account credentials", "error", err)
		os.Exit(1)
	}
	logger.Info("service account resolved", "source", cred.Source, "client_email", cred.ClientEmail)

	palettes, err := render.LoadPalettes(cfg.PaletteFile)
	if err != nil {
		logger.Error("failed to load palettes", "error", err)
		os.Exit(1)
	}

	client := archive.NewClient(archive.Config{
		BaseURL: cfg.ArchiveBaseURL,
		Dataset: cfg.ArchiveDataset,
		Timeout: cfg.ArchiveTimeout,
		RPS:     cfg.ArchiveRPS,
		Burst:   cfg.ArchiveBurst,
		Retries: cfg.ArchiveRetries,
	}, cred, logger, metrics)
	source := archive.NewCachedSource(client, cfg.ArchiveCacheSize, metrics)

	rasters := store.NewMemoryStore()
	runner := pipeline.NewRunner(source, rasters, logger, metrics, pipeline.Options{
		TemperatureBand: cfg.TemperatureBand,
		DewpointBand:    cfg.DewpointBand,
		BoundaryAsset:   cfg.BoundaryAsset,
		Workers:         cfg.PipelineWorkers,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, rasters, runner, palettes, logger, metrics)
	refresh := scheduler.New(runner, cfg.RefreshInterval, cfg.Start, cfg.End, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Derive the configured window once at startup; readiness flips when it
	// completes. Failures here are retried by the periodic refresh.
	go func() {
		if _, err := runner.Run(ctx, cfg.Start, cfg.End); err != nil {
			logger.Error("initial pipeline run failed", "error", err)
		}
	}()

	if err := refresh.Start(); err != nil {
		logger.Error("failed to start refresh scheduler", "error", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	refresh.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
