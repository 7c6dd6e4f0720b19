// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slotwise/slotwise/internal/config"
)

// Router wires the handlers into the chi routing tree.
type Router struct {
	handler *Handler
	cfg     *config.APIConfig
}

// NewRouter builds the router around a handler.
func NewRouter(handler *Handler, cfg *config.APIConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(router.cfg.CORSOrigins))
	r.Use(requestLogging)

	// Health endpoints stay outside the general rate limit so probes
	// never starve.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(router.cfg.RateLimitReqs, router.cfg.RateLimitWindow, "recommendations"))
			r.Get("/", router.handler.GetRecommendations)
			r.Get("/dendrogram", router.handler.GetDendrogram)
		})

		// The trigger runs the full pipeline synchronously; it gets its
		// own much stricter limit.
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(router.cfg.RunRateLimitReqs, router.cfg.RateLimitWindow, "recommendations_run"))
			r.Post("/run", router.handler.RunRecommendations)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
