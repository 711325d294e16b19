// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package main is the ReviewAtlas entry point.
//
// ReviewAtlas ingests geotagged reviews from a Mangrove-compatible source,
// maintains an append-only KPI ledger and a merged subject registry in
// DuckDB, enriches subjects with Nominatim place metadata, and rebuilds a
// TF-IDF cosine-similarity matrix plus per-subject word clouds after every
// run with new reviews. An HTTP API serves the registry, KPI history,
// similar-subject lookups and the rendered images.
//
// Components start in order:
//
//  1. Configuration: Koanf v2 layered defaults, config.yaml, environment
//  2. Database: DuckDB with the ledger/corpus/registry/similarity schema
//  3. Pipeline runner: fetch, wrangle, merge, enrich, similarity, clouds
//  4. HTTP server: read API, run trigger, Prometheus metrics, images
//
// Run one pass and exit with -once; otherwise the process schedules runs
// every PIPELINE_INTERVAL and serves HTTP until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reviewatlas/reviewatlas/internal/api"
	"github.com/reviewatlas/reviewatlas/internal/config"
	"github.com/reviewatlas/reviewatlas/internal/database"
	"github.com/reviewatlas/reviewatlas/internal/geocode"
	"github.com/reviewatlas/reviewatlas/internal/logging"
	"github.com/reviewatlas/reviewatlas/internal/pipeline"
	"github.com/reviewatlas/reviewatlas/internal/source"
	"github.com/reviewatlas/reviewatlas/internal/wordcloud"
)

func main() {
	once := flag.Bool("once", false, "run one pipeline pass and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("source_url", cfg.Source.BaseURL).
		Str("db_path", cfg.Database.Path).
		Str("images_dir", cfg.Pipeline.ImagesDir).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	client := source.NewClient(&cfg.Source)
	enricher := geocode.NewEnricher(db, geocode.NewClient(&cfg.Geocoder), &cfg.Geocoder)
	renderer := wordcloud.NewRenderer(&cfg.Pipeline)
	runner := pipeline.NewRunner(cfg, db, client, enricher, renderer)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, pipeline.ErrRunTooSoon) {
			logging.Error().Err(err).Msg("Pipeline run failed")
			if closeErr := db.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("Error closing database")
			}
			os.Exit(1)
		}
		return
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(api.NewHandlers(db, cfg, runner), cfg.Pipeline.ImagesDir),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	go scheduleRuns(ctx, cfg, runner)

	select {
	case err := <-serverErr:
		logging.Error().Err(err).Msg("HTTP server failed")
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	logging.Info().Msg("Shutdown complete")
}

// scheduleRuns triggers a pipeline pass on the configured interval until
// the context ends. A refused or failed pass waits for the next tick; the
// run itself already logged and recorded the outcome.
func scheduleRuns(ctx context.Context, cfg *config.Config, runner *pipeline.Runner) {
	if cfg.Pipeline.RunOnStartup {
		runOnce(ctx, runner)
	}

	ticker := time.NewTicker(cfg.Pipeline.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, runner)
		}
	}
}

func runOnce(ctx context.Context, runner *pipeline.Runner) {
	err := runner.Run(ctx)
	if err != nil && !errors.Is(err, pipeline.ErrRunTooSoon) && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Scheduled pipeline run failed")
	}
}
