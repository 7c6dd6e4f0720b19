// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/slotwise/slotwise/internal/config"
	"github.com/slotwise/slotwise/internal/database"
	"github.com/slotwise/slotwise/internal/metrics"
	"github.com/slotwise/slotwise/internal/placement"
)

func newTestRouter(store *stubStore, apiCfg *config.APIConfig) http.Handler {
	if apiCfg == nil {
		cfg := testConfig()
		apiCfg = &cfg.API
	}
	return NewRouter(newTestHandler(store), apiCfg).Setup()
}

func TestRouterRoutes(t *testing.T) {
	store := &stubStore{
		records: fixtureRecords(),
		catalog: fixtureCatalog(),
		summary: &database.RunSummary{RunID: "run-1"},
		clusters: []placement.RecommendationCluster{
			{ClusterID: 0},
		},
		steps: []placement.MergeStep{
			{Step: 0, Left: 0, Right: 1, Distance: 0.5, Size: 2},
		},
	}
	router := newTestRouter(store, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/api/v1/health", http.StatusOK},
		{"liveness", http.MethodGet, "/api/v1/health/live", http.StatusOK},
		{"readiness", http.MethodGet, "/api/v1/health/ready", http.StatusOK},
		{"recommendations", http.MethodGet, "/api/v1/recommendations", http.StatusOK},
		{"dendrogram", http.MethodGet, "/api/v1/recommendations/dendrogram", http.StatusOK},
		{"trigger run", http.MethodPost, "/api/v1/recommendations/run", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"unknown path", http.MethodGet, "/api/v1/nowhere", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/v1/recommendations", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouterRunRateLimit(t *testing.T) {
	store := &stubStore{records: fixtureRecords(), catalog: fixtureCatalog()}
	apiCfg := &config.APIConfig{
		CORSOrigins:      []string{"*"},
		RateLimitReqs:    100,
		RateLimitWindow:  time.Minute,
		RunRateLimitReqs: 1,
	}
	router := newTestRouter(store, apiCfg)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/run", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first run status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/run", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second run status = %d, want 429", second.Code)
	}

	// The general read limit is independent of the trigger limit.
	read := httptest.NewRecorder()
	router.ServeHTTP(read, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil))
	if read.Code != http.StatusNotFound {
		t.Fatalf("read status = %d, want 404 (no runs in stub)", read.Code)
	}
}

func TestRouterRecordsRequestMetrics(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(store, nil)

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/api/v1/health/live", "200")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("request counter = %v, want %v", got, before+1)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(store, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Access-Control-Allow-Origin header missing")
	}
}
