// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

// Package api exposes the Slotwise HTTP surface: recommendation reads,
// pipeline triggering, dendrogram inspection and health probes.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/slotwise/slotwise/internal/config"
	"github.com/slotwise/slotwise/internal/database"
	"github.com/slotwise/slotwise/internal/logging"
	"github.com/slotwise/slotwise/internal/placement"
)

// Store is the persistence surface the handlers need. *database.DB
// satisfies it.
type Store interface {
	Ping(ctx context.Context) error
	TransactionCount(ctx context.Context) (int, error)
	LoadTransactions(ctx context.Context, filter database.LoadFilter) ([]placement.TransactionRecord, error)
	ProductCatalog(ctx context.Context) (map[string]placement.ProductInfo, error)
	SaveRun(ctx context.Context, result *placement.RunResult) error
	LatestRecommendations(ctx context.Context) (*database.RunSummary, []placement.RecommendationCluster, error)
	LatestMergeHistory(ctx context.Context) (*database.RunSummary, []placement.MergeStep, error)
}

// Handler serves the Slotwise API endpoints.
type Handler struct {
	store     Store
	pipeline  *placement.Pipeline
	cfg       *config.Config
	startTime time.Time
}

// NewHandler builds the API handler.
func NewHandler(store Store, pipeline *placement.Pipeline, cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		pipeline:  pipeline,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// Health reports database connectivity and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":             status,
			"database_connected": dbConnected,
			"uptime_seconds":     time.Since(h.startTime).Seconds(),
		},
		Metadata: Metadata{Timestamp: time.Now()},
	})
}

// HealthLive is the liveness probe. Always 200 while the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: Metadata{Timestamp: time.Now()},
	})
}

// HealthReady is the readiness probe. 503 until the database answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.store.Ping(r.Context()) != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY",
			"Database is not reachable", nil)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"ready": true,
		},
		Metadata: Metadata{Timestamp: time.Now()},
	})
}

// recommendationsPayload is the read-endpoint response body.
type recommendationsPayload struct {
	Run             *database.RunSummary              `json:"run"`
	Recommendations []placement.RecommendationCluster `json:"recommendations"`
}

// GetRecommendations returns the latest persisted recommendation set,
// ranked by strength. The limit query parameter truncates the list.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	summary, clusters, err := h.store.LatestRecommendations(r.Context())
	if errors.Is(err, database.ErrNoRuns) {
		respondError(w, http.StatusNotFound, "NO_RUNS",
			"No recommendation run has completed yet", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR",
			"Failed to load recommendations", err)
		return
	}

	limit := getIntParam(r, "limit", 0)
	if limit > 0 && limit < len(clusters) {
		clusters = clusters[:limit]
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: recommendationsPayload{
			Run:             summary,
			Recommendations: clusters,
		},
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// dendrogramPayload is the merge-history response body.
type dendrogramPayload struct {
	Run          *database.RunSummary  `json:"run"`
	ProductCount int                   `json:"product_count"`
	MergeHistory []placement.MergeStep `json:"merge_history"`
}

// GetDendrogram returns the merge history of the latest run. Leaves are
// numbered 0..P-1; the cluster created by step s is node P+s.
func (h *Handler) GetDendrogram(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	summary, steps, err := h.store.LatestMergeHistory(r.Context())
	if errors.Is(err, database.ErrNoRuns) {
		respondError(w, http.StatusNotFound, "NO_RUNS",
			"No recommendation run has completed yet", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR",
			"Failed to load merge history", err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: dendrogramPayload{
			Run:          summary,
			ProductCount: summary.ProductCount,
			MergeHistory: steps,
		},
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// runPayload is the trigger-endpoint response body.
type runPayload struct {
	RunID           string                            `json:"run_id"`
	Params          placement.Params                  `json:"params"`
	BasketStats     placement.BasketStats             `json:"basket_stats"`
	Summary         placement.RecommendationSummary   `json:"summary"`
	Recommendations []placement.RecommendationCluster `json:"recommendations"`
	Timings         placement.StageTimings            `json:"timings"`
}

// RunRecommendations executes a full pipeline run synchronously: load
// the cleaned order history, run the four stages, persist the result
// and return it. An optional JSON body overrides the configured
// parameters per run.
func (h *Handler) RunRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, apiErr := decodeRunRequest(r)
	if apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &APIResponse{
			Status:   "error",
			Metadata: Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	params := req.applyTo(h.cfg.Pipeline.Params())

	loadLimit := h.cfg.Pipeline.LoadLimit
	if req.LoadLimit != nil {
		loadLimit = *req.LoadLimit
	}
	daysBack := h.cfg.Pipeline.LoadDaysBack
	if req.LoadDaysBack != nil {
		daysBack = *req.LoadDaysBack
	}
	var since time.Time
	if daysBack > 0 {
		since = time.Now().AddDate(0, 0, -daysBack)
	}

	records, err := h.store.LoadTransactions(r.Context(), database.LoadFilter{
		Limit:      loadLimit,
		Since:      since,
		StockCodes: req.StockCodes,
		Countries:  req.Countries,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR",
			"Failed to load order history", err)
		return
	}
	catalog, err := h.store.ProductCatalog(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR",
			"Failed to load product catalog", err)
		return
	}

	result, err := h.pipeline.Run(r.Context(), records, catalog, params)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	if err := h.store.SaveRun(r.Context(), result); err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR",
			"Failed to persist run", err)
		return
	}

	logging.Info().
		Str("run_id", result.RunID).
		Int("recommendations", len(result.Recommendations)).
		Dur("duration", time.Since(start)).
		Msg("pipeline run completed")

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "success",
		Data: runPayload{
			RunID:           result.RunID,
			Params:          result.Params,
			BasketStats:     result.BasketStats,
			Summary:         result.Summary,
			Recommendations: result.Recommendations,
			Timings:         result.Timings,
		},
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// decodeRunRequest parses and validates the optional trigger body. An
// empty body means "use the configured defaults".
func decodeRunRequest(r *http.Request) (*RunRequest, *APIError) {
	var req RunRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return nil, &APIError{Code: "BAD_REQUEST", Message: "Failed to read request body"}
	}
	if len(body) == 0 {
		return &req, nil
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &APIError{Code: "BAD_REQUEST", Message: "Request body is not valid JSON"}
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		return nil, apiErr
	}
	return &req, nil
}

// respondPipelineError maps the typed pipeline errors onto HTTP status
// codes: bad configuration is the caller's fault, thin data is a
// processable-but-unsatisfiable request.
func respondPipelineError(w http.ResponseWriter, err error) {
	var (
		insufficientData     *placement.InsufficientDataError
		insufficientProducts *placement.InsufficientProductsError
		invalidMetric        *placement.InvalidMetricError
		invalidParam         *placement.InvalidParameterError
		clusteringFailure    *placement.ClusteringFailureError
	)

	switch {
	case errors.As(err, &invalidMetric):
		respondError(w, http.StatusBadRequest, "INVALID_METRIC", err.Error(), nil)
	case errors.As(err, &invalidParam):
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), nil)
	case errors.As(err, &insufficientData):
		respondError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA", err.Error(), nil)
	case errors.As(err, &insufficientProducts):
		respondError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_PRODUCTS", err.Error(), nil)
	case errors.As(err, &clusteringFailure):
		respondError(w, http.StatusUnprocessableEntity, "CLUSTERING_FAILED", err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, "RUN_CANCELLED", "Pipeline run was cancelled", err)
	default:
		respondError(w, http.StatusInternalServerError, "PIPELINE_ERROR", "Pipeline run failed", err)
	}
}
