// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

// Package metrics provides Prometheus instrumentation for Slotwise:
// pipeline run counts and per-stage durations, database query
// performance, and API endpoint latency and throughput.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline Metrics
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of recommendation pipeline runs",
		},
		[]string{"status"}, // "success", "failure"
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"stage"}, // "basket", "similarity", "cluster", "recommend"
	)

	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "End-to-end duration of pipeline runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
	)

	PipelineProductsRetained = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_products_retained",
			Help: "Products surviving support filtering in the last run",
		},
	)

	PipelineBasketsRetained = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_baskets_retained",
			Help: "Baskets surviving support filtering in the last run",
		},
	)

	PipelineRecommendations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_recommendations",
			Help: "Recommendations produced by the last run",
		},
	)

	PipelineLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last successful pipeline run",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	DBRowsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duckdb_transaction_rows_loaded_total",
			Help: "Total order history rows loaded for pipeline runs",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordPipelineRun records the outcome of one pipeline run.
func RecordPipelineRun(duration time.Duration, err error) {
	PipelineRunDuration.Observe(duration.Seconds())
	if err != nil {
		PipelineRunsTotal.WithLabelValues("failure").Inc()
		return
	}
	PipelineRunsTotal.WithLabelValues("success").Inc()
	PipelineLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordPipelineStages records per-stage wall-clock durations in
// milliseconds, as reported by the pipeline runner.
func RecordPipelineStages(basketMS, similarityMS, clusterMS, recommendMS int64) {
	PipelineStageDuration.WithLabelValues("basket").Observe(float64(basketMS) / 1000)
	PipelineStageDuration.WithLabelValues("similarity").Observe(float64(similarityMS) / 1000)
	PipelineStageDuration.WithLabelValues("cluster").Observe(float64(clusterMS) / 1000)
	PipelineStageDuration.WithLabelValues("recommend").Observe(float64(recommendMS) / 1000)
}

// RecordRunArtifacts updates the last-run gauges.
func RecordRunArtifacts(products, baskets, recommendations int) {
	PipelineProductsRetained.Set(float64(products))
	PipelineBasketsRetained.Set(float64(baskets))
	PipelineRecommendations.Set(float64(recommendations))
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
