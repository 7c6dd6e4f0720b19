// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package placement

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// GenerateRecommendations converts cluster assignments into ranked,
// explained, persistence-ready recommendation records.
//
// Per cluster, the recommendation strength is
//
//	coherence * ln(1 + total_quantity_sold) * (min(size, maxSize) / maxSize)
//
// which rewards tight, high-volume, appropriately sized clusters.
// Clusters below params.MinClusterSize members or params.MinCoherence
// are dropped. Survivors are ranked by strength descending, ties broken
// by cluster ID ascending, and truncated to params.TopN. An empty result
// is not an error.
//
// Cluster scoring reads only the immutable assignment and catalog, so
// clusters fan out across a bounded worker pool.
func GenerateRecommendations(ctx context.Context, assignment *ClusterAssignment, coherence map[int]float64, catalog map[string]ProductInfo, params Params) ([]RecommendationCluster, error) {
	const stage = "recommendation-engine"

	if params.TopN <= 0 {
		return nil, &InvalidParameterError{Stage: stage, Param: "top_n", Value: params.TopN}
	}
	if params.MaxClusterSize <= 0 {
		return nil, &InvalidParameterError{Stage: stage, Param: "max_cluster_size", Value: params.MaxClusterSize}
	}
	if params.MinClusterSize < 1 {
		return nil, &InvalidParameterError{Stage: stage, Param: "min_cluster_size", Value: params.MinClusterSize}
	}

	clusterCount := assignment.ClusterCount()
	results := make([]*RecommendationCluster, clusterCount)

	workers := params.workerCount()
	if workers > clusterCount {
		workers = clusterCount
	}
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	ids := make(chan int)

	g.Go(func() error {
		defer close(ids)
		for id := 0; id < clusterCount; id++ {
			select {
			case ids <- id:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for id := range ids {
				if contextCancelled(gctx) {
					return gctx.Err()
				}
				results[id] = scoreCluster(assignment, id, coherence[id], catalog, params)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	recommendations := make([]RecommendationCluster, 0, clusterCount)
	for _, rec := range results {
		if rec != nil {
			recommendations = append(recommendations, *rec)
		}
	}

	sort.Slice(recommendations, func(a, b int) bool {
		if recommendations[a].RecommendationStrength != recommendations[b].RecommendationStrength {
			return recommendations[a].RecommendationStrength > recommendations[b].RecommendationStrength
		}
		return recommendations[a].ClusterID < recommendations[b].ClusterID
	})

	if len(recommendations) > params.TopN {
		recommendations = recommendations[:params.TopN]
	}
	return recommendations, nil
}

// scoreCluster builds the recommendation record for one cluster, or nil
// when the cluster does not qualify.
func scoreCluster(assignment *ClusterAssignment, id int, coherence float64, catalog map[string]ProductInfo, params Params) *RecommendationCluster {
	members := assignment.Members(id)
	if len(members) < params.MinClusterSize || coherence < params.MinCoherence {
		return nil
	}

	products := make([]RecommendationProduct, 0, len(members))
	totalQuantity := 0
	var priceSum float64
	priced := 0

	for _, p := range members {
		code := assignment.Products[p]
		info, ok := catalog[code]
		product := RecommendationProduct{StockCode: code}
		if ok {
			product.Description = info.Description
			product.Quantity = info.TotalQuantity
			totalQuantity += info.TotalQuantity
			priceSum += info.AvgUnitPrice
			priced++
		}
		products = append(products, product)
	}

	var avgPrice float64
	if priced > 0 {
		avgPrice = priceSum / float64(priced)
	}

	size := float64(len(members))
	capped := math.Min(size, float64(params.MaxClusterSize))
	strength := coherence * math.Log(1+float64(totalQuantity)) * (capped / float64(params.MaxClusterSize))

	return &RecommendationCluster{
		ClusterID:              id,
		CoherenceScore:         coherence,
		RecommendationStrength: strength,
		TotalQuantitySold:      totalQuantity,
		AvgUnitPrice:           avgPrice,
		Explanation:            buildExplanation(products, totalQuantity),
		Products:               products,
	}
}

// buildExplanation renders the templated colocation rationale naming the
// member products and their shared purchase volume.
func buildExplanation(products []RecommendationProduct, totalQuantity int) string {
	names := make([]string, 0, 3)
	for _, p := range products {
		if len(names) == 3 {
			break
		}
		name := p.Description
		if name == "" {
			name = p.StockCode
		}
		names = append(names, name)
	}

	listed := strings.Join(names, ", ")
	if extra := len(products) - len(names); extra > 0 {
		listed = fmt.Sprintf("%s and %d more", listed, extra)
	}

	return fmt.Sprintf(
		"These %d products (%s) are frequently purchased together (total sales: %d units). "+
			"Placing them close together can reduce picking time and improve warehouse efficiency.",
		len(products), listed, totalQuantity)
}

// Summarize aggregates a ranked recommendation list. An empty list
// yields a zero summary.
func Summarize(recommendations []RecommendationCluster) RecommendationSummary {
	summary := RecommendationSummary{TotalRecommendations: len(recommendations)}
	if len(recommendations) == 0 {
		return summary
	}

	summary.MinCoherence = math.Inf(1)
	summary.MinStrength = math.Inf(1)

	var coherenceSum, strengthSum, sizeSum float64
	for _, rec := range recommendations {
		coherenceSum += rec.CoherenceScore
		strengthSum += rec.RecommendationStrength
		sizeSum += float64(len(rec.Products))
		summary.TotalProducts += len(rec.Products)

		summary.MinCoherence = math.Min(summary.MinCoherence, rec.CoherenceScore)
		summary.MaxCoherence = math.Max(summary.MaxCoherence, rec.CoherenceScore)
		summary.MinStrength = math.Min(summary.MinStrength, rec.RecommendationStrength)
		summary.MaxStrength = math.Max(summary.MaxStrength, rec.RecommendationStrength)
	}

	count := float64(len(recommendations))
	summary.AvgCoherence = coherenceSum / count
	summary.AvgStrength = strengthSum / count
	summary.AvgClusterSize = sizeSum / count
	return summary
}
