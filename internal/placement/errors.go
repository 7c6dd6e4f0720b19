// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package placement

import "fmt"

// InsufficientDataError indicates that too few baskets or products
// survived support filtering for the pipeline to proceed.
type InsufficientDataError struct {
	// Stage is the pipeline stage that rejected the input.
	Stage string

	// Baskets is the number of baskets remaining after filtering.
	Baskets int

	// Products is the number of distinct products remaining.
	Products int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: %d baskets, %d products (need at least 1 basket and 2 products)",
		e.Stage, e.Baskets, e.Products)
}

// InsufficientProductsError indicates that a matrix stage received fewer
// than two products and cannot compute pairwise scores.
type InsufficientProductsError struct {
	Stage    string
	Products int
}

func (e *InsufficientProductsError) Error() string {
	return fmt.Sprintf("%s: %d products present, need at least 2", e.Stage, e.Products)
}

// InvalidMetricError indicates an unrecognized similarity metric name.
type InvalidMetricError struct {
	Stage  string
	Metric string
}

func (e *InvalidMetricError) Error() string {
	return fmt.Sprintf("%s: unknown similarity metric %q (want jaccard, cosine or lift)", e.Stage, e.Metric)
}

// InvalidParameterError indicates an out-of-range configuration value.
// No stage silently substitutes a default for an invalid parameter.
type InvalidParameterError struct {
	Stage string
	Param string
	Value any
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("%s: invalid parameter %s=%v", e.Stage, e.Param, e.Value)
}

// ClusteringFailureError indicates a degenerate or invalid distance
// matrix: fewer than two products, or NaN/negative entries.
type ClusteringFailureError struct {
	Stage  string
	Reason string
}

func (e *ClusteringFailureError) Error() string {
	return fmt.Sprintf("%s: clustering failed: %s", e.Stage, e.Reason)
}
