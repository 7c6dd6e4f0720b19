// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

// Package main is the entry point for the Slotwise server.
//
// Slotwise analyzes historical order data to recommend which warehouse
// products should be slotted near each other: products frequently
// purchased together are clustered and ranked so pickers walk less.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 sources (defaults, YAML file,
//     SLOTWISE_-prefixed environment variables)
//  2. Logging: zerolog, JSON or console format
//  3. Database: embedded DuckDB holding the order history and the
//     persisted recommendation runs
//  4. Pipeline: the basket -> similarity -> clustering -> recommendation
//     engine
//  5. HTTP server: REST API plus Prometheus metrics
//
// Long-running components run under a suture supervisor tree. SIGINT and
// SIGTERM trigger graceful shutdown: the HTTP server drains in-flight
// requests (10s timeout) before the database closes.
//
// Example usage:
//
//	export SLOTWISE_DUCKDB_PATH=/data/slotwise.duckdb
//	export SLOTWISE_HTTP_PORT=8085
//	export SLOTWISE_SEED_DEMO_DATA=true   # small built-in history
//	./slotwise
//
// Scheduled runs re-compute recommendations periodically:
//
//	export SLOTWISE_PIPELINE_RUN_INTERVAL=6h
//	./slotwise
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slotwise/slotwise/internal/api"
	"github.com/slotwise/slotwise/internal/config"
	"github.com/slotwise/slotwise/internal/database"
	"github.com/slotwise/slotwise/internal/logging"
	"github.com/slotwise/slotwise/internal/placement"
	"github.com/slotwise/slotwise/internal/supervisor"
	"github.com/slotwise/slotwise/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings.
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
		Str("db_path", cfg.Database.Path).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Slotwise")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedDemoData {
		if err := db.SeedDemoData(context.Background()); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("Error closing database")
			}
			logging.Fatal().Err(err).Msg("Failed to seed demo data")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline := placement.NewPipeline(logging.Logger())

	handler := api.NewHandler(db, pipeline, cfg)
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	// The sutureslog hook speaks slog; bridge it to zerolog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	if cfg.Pipeline.RunInterval > 0 {
		tree.AddDataService(services.NewSchedulerService(db, pipeline, services.SchedulerConfig{
			Interval:     cfg.Pipeline.RunInterval,
			Params:       cfg.Pipeline.Params(),
			LoadLimit:    cfg.Pipeline.LoadLimit,
			LoadDaysBack: cfg.Pipeline.LoadDaysBack,
		}))
		logging.Info().Dur("interval", cfg.Pipeline.RunInterval).Msg("Scheduled pipeline runs enabled")
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Slotwise stopped gracefully")
}
