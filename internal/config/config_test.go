// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slotwise/slotwise/internal/placement"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8085 {
		t.Errorf("Server.Port = %d, want 8085", cfg.Server.Port)
	}
	if cfg.Pipeline.Metric != "jaccard" {
		t.Errorf("Pipeline.Metric = %q, want jaccard", cfg.Pipeline.Metric)
	}
	if cfg.Pipeline.Linkage != "complete" {
		t.Errorf("Pipeline.Linkage = %q, want complete", cfg.Pipeline.Linkage)
	}
	if cfg.API.RateLimitWindow != time.Minute {
		t.Errorf("API.RateLimitWindow = %v, want 1m", cfg.API.RateLimitWindow)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SLOTWISE_HTTP_PORT", "9090")
	t.Setenv("SLOTWISE_PIPELINE_METRIC", "cosine")
	t.Setenv("SLOTWISE_PIPELINE_MIN_SUPPORT", "25")
	t.Setenv("SLOTWISE_LOG_LEVEL", "debug")
	t.Setenv("SLOTWISE_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Pipeline.Metric != "cosine" {
		t.Errorf("Pipeline.Metric = %q, want cosine", cfg.Pipeline.Metric)
	}
	if cfg.Pipeline.MinSupport != 25 {
		t.Errorf("Pipeline.MinSupport = %d, want 25", cfg.Pipeline.MinSupport)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.API.CORSOrigins) != len(want) {
		t.Fatalf("API.CORSOrigins = %v, want %v", cfg.API.CORSOrigins, want)
	}
	for i := range want {
		if cfg.API.CORSOrigins[i] != want[i] {
			t.Errorf("API.CORSOrigins[%d] = %q, want %q", i, cfg.API.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7070
pipeline:
  metric: lift
  top_n: 3
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Pipeline.Metric != "lift" {
		t.Errorf("Pipeline.Metric = %q, want lift", cfg.Pipeline.Metric)
	}
	if cfg.Pipeline.TopN != 3 {
		t.Errorf("Pipeline.TopN = %d, want 3", cfg.Pipeline.TopN)
	}
	// Untouched sections keep their defaults.
	if cfg.Database.MaxMemory != "2GB" {
		t.Errorf("Database.MaxMemory = %q, want 2GB", cfg.Database.MaxMemory)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SLOTWISE_HTTP_PORT", "9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want env override 9191", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"invalid metric", "SLOTWISE_PIPELINE_METRIC", "pearson"},
		{"invalid linkage", "SLOTWISE_PIPELINE_LINKAGE", "ward"},
		{"port out of range", "SLOTWISE_HTTP_PORT", "99999"},
		{"invalid log level", "SLOTWISE_LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() error = nil with %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestPipelineConfigParams(t *testing.T) {
	params := Default().Pipeline.Params()

	if params.SimilarityMetric != placement.MetricJaccard {
		t.Errorf("SimilarityMetric = %q, want jaccard", params.SimilarityMetric)
	}
	if params.ClusterLinkage != placement.LinkageComplete {
		t.Errorf("ClusterLinkage = %q, want complete", params.ClusterLinkage)
	}
	if err := params.Validate(); err != nil {
		t.Errorf("Params().Validate() error = %v", err)
	}
}

func TestEnvTransformSkipsUnknown(t *testing.T) {
	if got := envTransform("SLOTWISE_SOMETHING_ELSE"); got != "" {
		t.Errorf("envTransform(unknown) = %q, want empty", got)
	}
	if got := envTransform("SLOTWISE_DUCKDB_PATH"); got != "database.path" {
		t.Errorf("envTransform(SLOTWISE_DUCKDB_PATH) = %q, want database.path", got)
	}
}
