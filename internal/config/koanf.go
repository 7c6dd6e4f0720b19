// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/slotwise/config.yaml",
	"/etc/slotwise/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "SLOTWISE_CONFIG_PATH"

// envPrefix is stripped from environment variables before mapping.
const envPrefix = "SLOTWISE_"

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8085,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:         "/data/slotwise.duckdb",
			MaxMemory:    "2GB",
			Threads:      0, // 0 = runtime.NumCPU()
			SeedDemoData: false,
		},
		Pipeline: PipelineConfig{
			MinSupport:     10,
			Metric:         "jaccard",
			NClusters:      0, // auto via silhouette
			Linkage:        "complete",
			MaxClusterSize: 100,
			TopN:           10,
			MinClusterSize: 2,
			MinCoherence:   0,
			Workers:        0,
			LoadLimit:      0,
			LoadDaysBack:   0,
			RunInterval:    0, // scheduled runs disabled

		},
		API: APIConfig{
			CORSOrigins:      []string{"*"},
			RateLimitReqs:    100,
			RateLimitWindow:  time.Minute,
			RunRateLimitReqs: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. SLOTWISE_-prefixed environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated strings into slices for
// the known slice-valued paths. YAML-provided slices pass through.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransform maps SLOTWISE_-prefixed environment variable names to
// config paths. Unknown variables are skipped so unrelated environment
// state never pollutes the config.
//
//	SLOTWISE_HTTP_PORT          -> server.port
//	SLOTWISE_DUCKDB_PATH        -> database.path
//	SLOTWISE_PIPELINE_METRIC    -> pipeline.metric
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",
		"seed_demo_data":    "database.seed_demo_data",

		// Pipeline defaults
		"pipeline_min_support":      "pipeline.min_support",
		"pipeline_metric":           "pipeline.metric",
		"pipeline_n_clusters":       "pipeline.n_clusters",
		"pipeline_linkage":          "pipeline.linkage",
		"pipeline_max_cluster_size": "pipeline.max_cluster_size",
		"pipeline_top_n":            "pipeline.top_n",
		"pipeline_min_cluster_size": "pipeline.min_cluster_size",
		"pipeline_min_coherence":    "pipeline.min_coherence",
		"pipeline_workers":          "pipeline.workers",
		"pipeline_load_limit":       "pipeline.load_limit",
		"pipeline_load_days_back":   "pipeline.load_days_back",
		"pipeline_run_interval":     "pipeline.run_interval",

		// API
		"cors_origins":        "api.cors_origins",
		"rate_limit_requests": "api.rate_limit_reqs",
		"rate_limit_window":   "api.rate_limit_window",
		"run_rate_limit":      "api.run_rate_limit_reqs",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
