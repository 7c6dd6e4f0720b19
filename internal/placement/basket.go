// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package placement

import (
	"context"
	"sort"
)

// BuildBasketMatrix converts a transaction log into a binary occurrence
// matrix filtered by minimum support.
//
// Records are grouped by basket ID and reduced to distinct product sets.
// A product is retained when it occurs in at least minSupport baskets;
// a basket is retained when it still contains at least one retained
// product. Rows and columns are sorted so the matrix is identical across
// runs for identical input.
func BuildBasketMatrix(ctx context.Context, records []TransactionRecord, minSupport int) (*BasketMatrix, error) {
	const stage = "basket-builder"

	if minSupport < 0 {
		return nil, &InvalidParameterError{Stage: stage, Param: "min_support", Value: minSupport}
	}

	// Distinct product set per basket.
	basketProducts := make(map[string]map[string]struct{})
	for _, rec := range records {
		if rec.BasketID == "" || rec.ProductCode == "" {
			continue
		}
		set, ok := basketProducts[rec.BasketID]
		if !ok {
			set = make(map[string]struct{})
			basketProducts[rec.BasketID] = set
		}
		set[rec.ProductCode] = struct{}{}
	}

	// Per-product basket occurrence counts.
	support := make(map[string]int)
	for _, set := range basketProducts {
		if contextCancelled(ctx) {
			return nil, ctx.Err()
		}
		for code := range set {
			support[code]++
		}
	}

	// Retain products meeting minimum support, columns sorted by code.
	products := make([]string, 0, len(support))
	for code, count := range support {
		if count >= minSupport {
			products = append(products, code)
		}
	}
	sort.Strings(products)

	productIndex := make(map[string]int, len(products))
	for i, code := range products {
		productIndex[code] = i
	}

	// Retain baskets that still contain a qualifying product, rows
	// sorted by basket ID.
	basketIDs := make([]string, 0, len(basketProducts))
	for id, set := range basketProducts {
		for code := range set {
			if _, ok := productIndex[code]; ok {
				basketIDs = append(basketIDs, id)
				break
			}
		}
	}
	sort.Strings(basketIDs)

	if len(basketIDs) == 0 || len(products) < 2 {
		return nil, &InsufficientDataError{Stage: stage, Baskets: len(basketIDs), Products: len(products)}
	}

	productBaskets := make([][]int, len(products))
	basketSizes := make([]int, len(basketIDs))
	retained := make([]int, len(products))

	for b, id := range basketIDs {
		if contextCancelled(ctx) {
			return nil, ctx.Err()
		}
		for code := range basketProducts[id] {
			p, ok := productIndex[code]
			if !ok {
				continue
			}
			productBaskets[p] = append(productBaskets[p], b)
			basketSizes[b]++
		}
	}
	// Basket iteration order is ascending, so each product's basket
	// list is already sorted.
	for p := range productBaskets {
		retained[p] = len(productBaskets[p])
	}

	return &BasketMatrix{
		BasketIDs:      basketIDs,
		Products:       products,
		Support:        retained,
		productBaskets: productBaskets,
		basketSizes:    basketSizes,
	}, nil
}

// Stats computes per-basket cardinality statistics and matrix sparsity.
func (m *BasketMatrix) Stats() BasketStats {
	stats := BasketStats{
		TotalBaskets:  len(m.BasketIDs),
		TotalProducts: len(m.Products),
	}
	if len(m.basketSizes) == 0 {
		return stats
	}

	sizes := make([]int, len(m.basketSizes))
	copy(sizes, m.basketSizes)
	sort.Ints(sizes)

	stats.MinBasketSize = sizes[0]
	stats.MaxBasketSize = sizes[len(sizes)-1]

	mid := len(sizes) / 2
	if len(sizes)%2 == 1 {
		stats.MedianBasketSize = float64(sizes[mid])
	} else {
		stats.MedianBasketSize = float64(sizes[mid-1]+sizes[mid]) / 2
	}

	total := 0
	for _, s := range sizes {
		total += s
	}
	stats.AvgBasketSize = float64(total) / float64(len(sizes))
	cells := len(m.BasketIDs) * len(m.Products)
	stats.Sparsity = 1 - float64(total)/float64(cells)

	return stats
}

// contextCancelled checks if the context has been canceled.
func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
