// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package api

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/slotwise/slotwise/internal/placement"
)

// requestValidator validates request payloads. Shared across handlers,
// safe for concurrent use.
var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// RunRequest is the optional body of the pipeline trigger endpoint.
// Every field overrides the configured default when set; absent fields
// keep the server configuration.
type RunRequest struct {
	MinSupport     *int     `json:"min_support,omitempty" validate:"omitempty,min=0"`
	Metric         *string  `json:"metric,omitempty" validate:"omitempty,oneof=jaccard cosine lift"`
	NClusters      *int     `json:"n_clusters,omitempty" validate:"omitempty,min=0"`
	Linkage        *string  `json:"linkage,omitempty" validate:"omitempty,oneof=single complete average"`
	MaxClusterSize *int     `json:"max_cluster_size,omitempty" validate:"omitempty,min=1"`
	TopN           *int     `json:"top_n,omitempty" validate:"omitempty,min=1"`
	MinClusterSize *int     `json:"min_cluster_size,omitempty" validate:"omitempty,min=1"`
	MinCoherence   *float64 `json:"min_coherence,omitempty" validate:"omitempty,min=0,max=1"`
	LoadLimit      *int     `json:"load_limit,omitempty" validate:"omitempty,min=0"`
	LoadDaysBack   *int     `json:"load_days_back,omitempty" validate:"omitempty,min=0"`

	// StockCodes and Countries scope the loaded order history to a
	// subset of products or markets for the run.
	StockCodes []string `json:"stock_codes,omitempty" validate:"omitempty,max=1000,dive,min=1"`
	Countries  []string `json:"countries,omitempty" validate:"omitempty,max=100,dive,min=1"`
}

// applyTo merges the request overrides onto the configured parameters.
func (req *RunRequest) applyTo(params placement.Params) placement.Params {
	if req.MinSupport != nil {
		params.MinSupport = *req.MinSupport
	}
	if req.Metric != nil {
		params.SimilarityMetric = placement.Metric(*req.Metric)
	}
	if req.NClusters != nil {
		params.NClusters = *req.NClusters
	}
	if req.Linkage != nil {
		params.ClusterLinkage = placement.Linkage(*req.Linkage)
	}
	if req.MaxClusterSize != nil {
		params.MaxClusterSize = *req.MaxClusterSize
	}
	if req.TopN != nil {
		params.TopN = *req.TopN
	}
	if req.MinClusterSize != nil {
		params.MinClusterSize = *req.MinClusterSize
	}
	if req.MinCoherence != nil {
		params.MinCoherence = *req.MinCoherence
	}
	return params
}

// validateRequest validates a request struct and converts the failure
// into the API error format.
func validateRequest(v interface{}) *APIError {
	err := requestValidator.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	details := make(map[string]string)
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return &APIError{
		Code:    "VALIDATION_ERROR",
		Message: "Request validation failed",
		Details: details,
	}
}
