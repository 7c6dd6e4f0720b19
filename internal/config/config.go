// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

// Package config loads and validates the Slotwise configuration from
// layered sources: built-in defaults, an optional YAML file, and
// SLOTWISE_-prefixed environment variables, in ascending precedence.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/slotwise/slotwise/internal/placement"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host" validate:"required"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`

	// Timeout bounds request read/write and graceful shutdown.
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	// Environment is development or production.
	Environment string `koanf:"environment" validate:"oneof=development production"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory" validate:"required"`

	// Threads is the DuckDB worker thread count. Zero uses NumCPU.
	Threads int `koanf:"threads" validate:"min=0"`

	// SeedDemoData loads a small built-in transaction set on first
	// start when the order history is empty.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// PipelineConfig holds the default analysis parameters. Per-run API
// requests may override any of them.
type PipelineConfig struct {
	MinSupport     int     `koanf:"min_support" validate:"min=0"`
	Metric         string  `koanf:"metric" validate:"oneof=jaccard cosine lift"`
	NClusters      int     `koanf:"n_clusters" validate:"min=0"`
	Linkage        string  `koanf:"linkage" validate:"oneof=single complete average"`
	MaxClusterSize int     `koanf:"max_cluster_size" validate:"min=1"`
	TopN           int     `koanf:"top_n" validate:"min=1"`
	MinClusterSize int     `koanf:"min_cluster_size" validate:"min=1"`
	MinCoherence   float64 `koanf:"min_coherence" validate:"min=0,max=1"`
	Workers        int     `koanf:"workers" validate:"min=0"`

	// LoadLimit caps the number of order lines read per run. Zero
	// loads everything.
	LoadLimit int `koanf:"load_limit" validate:"min=0"`

	// LoadDaysBack restricts the transaction window. Zero loads the
	// full history.
	LoadDaysBack int `koanf:"load_days_back" validate:"min=0"`

	// RunInterval re-runs the pipeline periodically when positive.
	// Zero disables scheduled runs; the API trigger remains available
	// either way.
	RunInterval time.Duration `koanf:"run_interval" validate:"min=0"`
}

// Params converts the configured defaults into pipeline parameters.
func (p PipelineConfig) Params() placement.Params {
	return placement.Params{
		MinSupport:       p.MinSupport,
		SimilarityMetric: placement.Metric(p.Metric),
		NClusters:        p.NClusters,
		ClusterLinkage:   placement.Linkage(p.Linkage),
		MaxClusterSize:   p.MaxClusterSize,
		TopN:             p.TopN,
		MinClusterSize:   p.MinClusterSize,
		MinCoherence:     p.MinCoherence,
		Workers:          p.Workers,
	}
}

// APIConfig holds HTTP surface settings.
type APIConfig struct {
	CORSOrigins []string `koanf:"cors_origins" validate:"min=1"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"min=1s"`

	// RunRateLimitReqs bounds the expensive pipeline trigger endpoint
	// separately.
	RunRateLimitReqs int `koanf:"run_rate_limit_reqs" validate:"min=1"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration against its struct tags plus the
// pipeline parameter invariants.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := c.Pipeline.Params().Validate(); err != nil {
		return fmt.Errorf("config validation: pipeline: %w", err)
	}
	return nil
}
