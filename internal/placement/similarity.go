// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package placement

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ComputeSimilarity computes the symmetric product-by-product similarity
// matrix under the given metric, and its derived distance matrix.
//
// For products i, j with basket sets A, B and N total baskets:
//
//	jaccard: |A∩B| / |A∪B|
//	cosine:  |A∩B| / sqrt(|A|·|B|)
//	lift:    (|A∩B|/N) / ((|A|/N)·(|B|/N))
//
// Lift is unbounded above and is min-max normalized into [0,1] across
// the full matrix before use. Self-similarity is fixed at 1.0 regardless
// of metric; distance is 1 - normalized similarity with a zero diagonal.
//
// Pairs are independent, so rows fan out across a bounded worker pool
// reading only the immutable basket matrix.
func ComputeSimilarity(ctx context.Context, m *BasketMatrix, metric Metric, workers int) (*SimilarityMatrix, *DistanceMatrix, error) {
	const stage = "similarity-engine"

	if !metric.Valid() {
		return nil, nil, &InvalidMetricError{Stage: stage, Metric: string(metric)}
	}
	n := m.ProductCount()
	if n < 2 {
		return nil, nil, &InsufficientProductsError{Stage: stage, Products: n}
	}
	if workers < 1 {
		workers = 1
	}

	condensed := make([]float64, n*(n-1)/2)
	totalBaskets := float64(m.BasketCount())

	g, gctx := errgroup.WithContext(ctx)
	rows := make(chan int)

	g.Go(func() error {
		defer close(rows)
		for i := 0; i < n-1; i++ {
			select {
			case rows <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range rows {
				if contextCancelled(gctx) {
					return gctx.Err()
				}
				setA := m.ProductBaskets(i)
				for j := i + 1; j < n; j++ {
					setB := m.ProductBaskets(j)
					inter := intersectionSize(setA, setB)

					var score float64
					switch metric {
					case MetricJaccard:
						union := len(setA) + len(setB) - inter
						if union > 0 {
							score = float64(inter) / float64(union)
						}
					case MetricCosine:
						denom := math.Sqrt(float64(len(setA)) * float64(len(setB)))
						if denom > 0 {
							score = float64(inter) / denom
						}
					case MetricLift:
						score = float64(inter) * totalBaskets / (float64(len(setA)) * float64(len(setB)))
					}
					condensed[condensedIndex(n, i, j)] = score
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if metric == MetricLift {
		normalizeCondensed(condensed)
	}

	sim := &SimilarityMatrix{Products: m.Products, condensed: condensed}

	dist := make([]float64, len(condensed))
	for k, s := range condensed {
		d := 1 - s
		// Guard against float drift outside [0,1].
		if d < 0 {
			d = 0
		} else if d > 1 {
			d = 1
		}
		dist[k] = d
	}

	return sim, &DistanceMatrix{Products: m.Products, condensed: dist}, nil
}

// intersectionSize counts common elements of two ascending int slices.
func intersectionSize(a, b []int) int {
	count, i, j := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			count++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return count
}

// normalizeCondensed rescales values into [0,1] via min-max
// normalization. When all values are equal they collapse to 0.5.
func normalizeCondensed(values []float64) {
	if len(values) == 0 {
		return
	}
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	span := maxV - minV
	if span == 0 {
		for k := range values {
			values[k] = 0.5
		}
		return
	}
	for k := range values {
		values[k] = (values[k] - minV) / span
	}
}

// Stats summarizes the off-diagonal similarity distribution and returns
// the topK most similar pairs.
func (s *SimilarityMatrix) Stats(topK int) SimilarityStats {
	n := len(s.Products)
	stats := SimilarityStats{TotalPairs: len(s.condensed)}
	if len(s.condensed) == 0 {
		return stats
	}

	nonZero := make([]float64, 0, len(s.condensed))
	zeros := 0
	for _, v := range s.condensed {
		if v == 0 {
			zeros++
			continue
		}
		nonZero = append(nonZero, v)
		if v > 0.5 {
			stats.HighSimPairs++
		}
	}
	stats.Sparsity = float64(zeros) / float64(len(s.condensed))

	if len(nonZero) > 0 {
		sort.Float64s(nonZero)
		stats.MinSimilarity = nonZero[0]
		stats.MaxSimilarity = nonZero[len(nonZero)-1]

		var sum float64
		for _, v := range nonZero {
			sum += v
		}
		stats.MeanSimilarity = sum / float64(len(nonZero))

		mid := len(nonZero) / 2
		if len(nonZero)%2 == 1 {
			stats.MedianSimilarity = nonZero[mid]
		} else {
			stats.MedianSimilarity = (nonZero[mid-1] + nonZero[mid]) / 2
		}

		var variance float64
		for _, v := range nonZero {
			d := v - stats.MeanSimilarity
			variance += d * d
		}
		stats.StdSimilarity = math.Sqrt(variance / float64(len(nonZero)))
	}

	if topK > 0 {
		stats.TopPairs = s.topPairs(n, topK)
	}
	return stats
}

// topPairs returns the k most similar product pairs, ordered by score
// descending with ties broken by product codes ascending.
func (s *SimilarityMatrix) topPairs(n, k int) []SimilarPair {
	pairs := make([]SimilarPair, 0, len(s.condensed))
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, SimilarPair{
				ProductA: s.Products[i],
				ProductB: s.Products[j],
				Score:    s.condensed[condensedIndex(n, i, j)],
			})
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].Score != pairs[b].Score {
			return pairs[a].Score > pairs[b].Score
		}
		if pairs[a].ProductA != pairs[b].ProductA {
			return pairs[a].ProductA < pairs[b].ProductA
		}
		return pairs[a].ProductB < pairs[b].ProductB
	})
	if len(pairs) > k {
		pairs = pairs[:k]
	}
	return pairs
}
