// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package placement

import "time"

// TransactionRecord is one order line of the historical transaction log.
// Records are immutable input, provided by an external loader.
type TransactionRecord struct {
	// BasketID groups lines purchased together (the invoice number).
	BasketID string `json:"basket_id"`

	// ProductCode is the stock code of the purchased product.
	ProductCode string `json:"product_code"`

	// Quantity is the number of units on this line.
	Quantity int `json:"quantity"`

	// UnitPrice is the per-unit sale price.
	UnitPrice float64 `json:"unit_price"`

	// Timestamp is when the transaction occurred.
	Timestamp time.Time `json:"timestamp"`
}

// ProductInfo is catalog metadata for a single product, resolved by the
// external product catalog collaborator.
type ProductInfo struct {
	StockCode     string  `json:"stock_code"`
	Description   string  `json:"description"`
	AvgUnitPrice  float64 `json:"avg_unit_price"`
	TotalQuantity int     `json:"total_quantity"`
	OrderCount    int     `json:"order_count"`
}

// BasketMatrix is the binary basket x product occurrence matrix produced
// by the basket builder. Rows are baskets, columns are products sorted by
// product code so downstream matrices and cluster IDs are reproducible.
// It is never mutated after construction.
type BasketMatrix struct {
	// BasketIDs lists surviving basket identifiers in ascending order.
	BasketIDs []string

	// Products lists surviving product codes in ascending order.
	Products []string

	// Support holds the basket occurrence count per product, parallel
	// to Products. Every value is >= the min_support used to build the
	// matrix.
	Support []int

	// productBaskets[p] lists indices into BasketIDs of the baskets
	// containing product p, ascending.
	productBaskets [][]int

	// basketSizes[b] is the number of distinct surviving products in
	// basket b.
	basketSizes []int
}

// BasketCount returns the number of surviving baskets.
func (m *BasketMatrix) BasketCount() int { return len(m.BasketIDs) }

// ProductCount returns the number of surviving products.
func (m *BasketMatrix) ProductCount() int { return len(m.Products) }

// ProductBaskets returns the ascending basket indices containing product
// p. The returned slice is shared and must not be modified.
func (m *BasketMatrix) ProductBaskets(p int) []int { return m.productBaskets[p] }

// Value returns the binary cell for basket row b and product column p.
func (m *BasketMatrix) Value(b, p int) uint8 {
	baskets := m.productBaskets[p]
	lo, hi := 0, len(baskets)
	for lo < hi {
		mid := (lo + hi) / 2
		if baskets[mid] < b {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(baskets) && baskets[lo] == b {
		return 1
	}
	return 0
}

// BasketStats summarizes the basket matrix.
type BasketStats struct {
	TotalBaskets     int     `json:"total_baskets"`
	TotalProducts    int     `json:"total_products"`
	MinBasketSize    int     `json:"min_basket_size"`
	MedianBasketSize float64 `json:"median_basket_size"`
	MaxBasketSize    int     `json:"max_basket_size"`
	AvgBasketSize    float64 `json:"avg_basket_size"`

	// Sparsity is the fraction of zero cells in the binary matrix.
	Sparsity float64 `json:"sparsity"`
}

// SimilarityMatrix is a symmetric product x product matrix of similarity
// scores. The diagonal is fixed at 1.0 regardless of metric. Off-diagonal
// values are stored in condensed (upper triangle) form.
type SimilarityMatrix struct {
	Products  []string
	condensed []float64
}

// DistanceMatrix is derived from a similarity matrix as
// 1 - normalized_similarity. The diagonal is exactly 0 and all values lie
// in [0, 1]. Off-diagonal values are stored in condensed form.
type DistanceMatrix struct {
	Products  []string
	condensed []float64
}

// condensedIndex maps an unordered product pair to its slot in the
// condensed upper-triangle storage. Requires i != j.
func condensedIndex(n, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*(2*n-i-1)/2 + (j - i - 1)
}

// At returns the similarity between products i and j.
func (s *SimilarityMatrix) At(i, j int) float64 {
	if i == j {
		return 1.0
	}
	return s.condensed[condensedIndex(len(s.Products), i, j)]
}

// At returns the distance between products i and j.
func (d *DistanceMatrix) At(i, j int) float64 {
	if i == j {
		return 0.0
	}
	return d.condensed[condensedIndex(len(d.Products), i, j)]
}

// Condensed returns the condensed pairwise distances. The returned slice
// is shared and must not be modified.
func (d *DistanceMatrix) Condensed() []float64 { return d.condensed }

// SimilarPair is one product pair with its similarity score.
type SimilarPair struct {
	ProductA string  `json:"product_a"`
	ProductB string  `json:"product_b"`
	Score    float64 `json:"score"`
}

// SimilarityStats summarizes the off-diagonal similarity distribution.
// Mean/median/std/min/max cover the non-zero pairs; Sparsity is the
// fraction of zero pairs.
type SimilarityStats struct {
	MeanSimilarity   float64       `json:"mean_similarity"`
	MedianSimilarity float64       `json:"median_similarity"`
	StdSimilarity    float64       `json:"std_similarity"`
	MinSimilarity    float64       `json:"min_similarity"`
	MaxSimilarity    float64       `json:"max_similarity"`
	Sparsity         float64       `json:"sparsity"`
	TotalPairs       int           `json:"total_pairs"`
	HighSimPairs     int           `json:"high_similarity_pairs"`
	TopPairs         []SimilarPair `json:"top_pairs"`
}

// ClusterAssignment maps every retained product to exactly one cluster.
// Cluster IDs are dense, starting at 0, and ordered by each cluster's
// lexicographically smallest member code, so identical input yields
// identical IDs.
type ClusterAssignment struct {
	// Products lists product codes in ascending order, parallel to
	// Labels.
	Products []string `json:"products"`

	// Labels holds the cluster ID per product.
	Labels []int `json:"labels"`
}

// ClusterCount returns the number of distinct clusters.
func (a *ClusterAssignment) ClusterCount() int {
	max := -1
	for _, l := range a.Labels {
		if l > max {
			max = l
		}
	}
	return max + 1
}

// Members returns the product indices assigned to cluster id, ascending.
func (a *ClusterAssignment) Members(id int) []int {
	var members []int
	for i, l := range a.Labels {
		if l == id {
			members = append(members, i)
		}
	}
	return members
}

// MergeStep is one step of the dendrogram: the merge of two clusters at
// a given linkage distance. Leaves are numbered 0..P-1 in product order;
// the cluster created by step s is node P+s.
type MergeStep struct {
	Step     int     `json:"step"`
	Left     int     `json:"left"`
	Right    int     `json:"right"`
	Distance float64 `json:"distance"`

	// Size is the member count of the merged cluster.
	Size int `json:"size"`
}

// RecommendationProduct is one product within a placement recommendation.
type RecommendationProduct struct {
	StockCode   string `json:"stock_code"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// RecommendationCluster is a ranked, explained, persistence-ready
// placement recommendation for one product cluster.
type RecommendationCluster struct {
	ClusterID              int                     `json:"cluster_id"`
	CoherenceScore         float64                 `json:"coherence_score"`
	RecommendationStrength float64                 `json:"recommendation_strength"`
	TotalQuantitySold      int                     `json:"total_quantity_sold"`
	AvgUnitPrice           float64                 `json:"avg_unit_price"`
	Explanation            string                  `json:"explanation"`
	Products               []RecommendationProduct `json:"products"`
}

// RecommendationSummary aggregates a ranked recommendation list.
type RecommendationSummary struct {
	TotalRecommendations int     `json:"total_recommendations"`
	AvgCoherence         float64 `json:"avg_coherence_score"`
	MinCoherence         float64 `json:"min_coherence_score"`
	MaxCoherence         float64 `json:"max_coherence_score"`
	AvgStrength          float64 `json:"avg_strength_score"`
	MinStrength          float64 `json:"min_strength_score"`
	MaxStrength          float64 `json:"max_strength_score"`
	AvgClusterSize       float64 `json:"avg_cluster_size"`
	TotalProducts        int     `json:"total_products_recommended"`
}

// StageTimings records per-stage wall-clock durations for one run.
type StageTimings struct {
	BasketMS     int64 `json:"basket_ms"`
	SimilarityMS int64 `json:"similarity_ms"`
	ClusterMS    int64 `json:"cluster_ms"`
	RecommendMS  int64 `json:"recommend_ms"`
}

// RunResult holds every artifact of one completed pipeline run. A failed
// run produces no RunResult; partial artifacts are discarded together.
type RunResult struct {
	RunID       string    `json:"run_id"`
	Params      Params    `json:"params"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	BasketStats     BasketStats     `json:"basket_stats"`
	SimilarityStats SimilarityStats `json:"similarity_stats"`

	Assignment   *ClusterAssignment `json:"assignment"`
	Coherence    map[int]float64    `json:"coherence"`
	MergeHistory []MergeStep        `json:"merge_history"`

	Recommendations []RecommendationCluster `json:"recommendations"`
	Summary         RecommendationSummary   `json:"summary"`

	Timings StageTimings `json:"timings"`
}
