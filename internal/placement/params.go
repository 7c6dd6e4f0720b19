// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package placement

import "runtime"

// Metric selects the pairwise similarity formula.
type Metric string

const (
	// MetricJaccard scores |A∩B| / |A∪B| over basket sets.
	MetricJaccard Metric = "jaccard"
	// MetricCosine scores |A∩B| / sqrt(|A|·|B|) over basket sets.
	MetricCosine Metric = "cosine"
	// MetricLift scores observed over expected co-occurrence and is
	// min-max normalized into [0,1] before use.
	MetricLift Metric = "lift"
)

// Valid reports whether the metric is one of the recognized names.
func (m Metric) Valid() bool {
	switch m {
	case MetricJaccard, MetricCosine, MetricLift:
		return true
	}
	return false
}

// Linkage selects the inter-cluster distance rule used during merging.
type Linkage string

const (
	// LinkageSingle uses the minimum pairwise member distance.
	LinkageSingle Linkage = "single"
	// LinkageComplete uses the maximum pairwise member distance.
	LinkageComplete Linkage = "complete"
	// LinkageAverage uses the mean pairwise member distance.
	LinkageAverage Linkage = "average"
)

// Valid reports whether the linkage is one of the recognized names.
func (l Linkage) Valid() bool {
	switch l {
	case LinkageSingle, LinkageComplete, LinkageAverage:
		return true
	}
	return false
}

// Params is the configuration surface of one pipeline run.
type Params struct {
	// MinSupport is the minimum basket occurrence count for a product
	// to be retained.
	MinSupport int `json:"min_support"`

	// SimilarityMetric selects the similarity formula.
	SimilarityMetric Metric `json:"metric"`

	// NClusters fixes the cluster count when positive. Zero selects
	// the count automatically via silhouette analysis.
	NClusters int `json:"n_clusters"`

	// ClusterLinkage selects the inter-cluster distance rule.
	ClusterLinkage Linkage `json:"linkage"`

	// MaxClusterSize is the hard size cap enforced by recursive
	// splitting, and the size reward ceiling in recommendation
	// strength.
	MaxClusterSize int `json:"max_cluster_size"`

	// TopN is the number of ranked recommendations returned.
	TopN int `json:"top_n"`

	// MinClusterSize is the minimum member count for a cluster to be
	// recommendable.
	MinClusterSize int `json:"min_cluster_size"`

	// MinCoherence drops clusters whose coherence score falls below
	// the threshold.
	MinCoherence float64 `json:"min_coherence"`

	// Workers bounds the similarity and scoring worker pools. Zero
	// uses GOMAXPROCS.
	Workers int `json:"workers,omitempty"`
}

// DefaultParams returns the default pipeline configuration.
func DefaultParams() Params {
	return Params{
		MinSupport:       10,
		SimilarityMetric: MetricJaccard,
		NClusters:        0, // auto via silhouette
		ClusterLinkage:   LinkageComplete,
		MaxClusterSize:   100,
		TopN:             10,
		MinClusterSize:   2,
		MinCoherence:     0,
		Workers:          0,
	}
}

// Validate fails fast on out-of-range configuration. Invalid values are
// never silently replaced by defaults.
func (p Params) Validate() error {
	const stage = "params"

	if p.MinSupport < 0 {
		return &InvalidParameterError{Stage: stage, Param: "min_support", Value: p.MinSupport}
	}
	if !p.SimilarityMetric.Valid() {
		return &InvalidMetricError{Stage: stage, Metric: string(p.SimilarityMetric)}
	}
	if p.NClusters < 0 {
		return &InvalidParameterError{Stage: stage, Param: "n_clusters", Value: p.NClusters}
	}
	if !p.ClusterLinkage.Valid() {
		return &InvalidParameterError{Stage: stage, Param: "linkage", Value: string(p.ClusterLinkage)}
	}
	if p.MaxClusterSize <= 0 {
		return &InvalidParameterError{Stage: stage, Param: "max_cluster_size", Value: p.MaxClusterSize}
	}
	if p.TopN <= 0 {
		return &InvalidParameterError{Stage: stage, Param: "top_n", Value: p.TopN}
	}
	if p.MinClusterSize < 1 {
		return &InvalidParameterError{Stage: stage, Param: "min_cluster_size", Value: p.MinClusterSize}
	}
	if p.MinCoherence < 0 || p.MinCoherence > 1 {
		return &InvalidParameterError{Stage: stage, Param: "min_coherence", Value: p.MinCoherence}
	}
	if p.Workers < 0 {
		return &InvalidParameterError{Stage: stage, Param: "workers", Value: p.Workers}
	}
	return nil
}

// workerCount resolves the effective worker pool size.
func (p Params) workerCount() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}
