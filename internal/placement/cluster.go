// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package placement

import (
	"context"
	"math"
	"sort"
)

// ClusterResult holds the output of the cluster engine.
type ClusterResult struct {
	Assignment *ClusterAssignment

	// Coherence is the mean pairwise similarity among each final
	// cluster's members. Single-member clusters score 1.0.
	Coherence map[int]float64

	// MergeHistory is the full dendrogram of the top-level merge
	// sequence, for external visualization.
	MergeHistory []MergeStep

	// SelectedK is the cluster count the tree was cut at, before any
	// size-bounded splitting.
	SelectedK int
}

// ClusterProducts runs agglomerative hierarchical clustering over the
// distance matrix.
//
// Clusters are merged bottom-up under the configured linkage until one
// remains, recording the full merge sequence. Ties on equal merge
// distances are broken toward the pair whose combined member set is
// lexicographically smallest by product code, so results are
// deterministic. The tree is cut at params.NClusters (clamped to
// [1, P]), or at the silhouette-maximizing count over [2, ceil(sqrt(P))]
// when NClusters is zero, ties toward the smaller count. Clusters
// exceeding params.MaxClusterSize are recursively re-clustered on their
// own sub-distance matrix into ceil(size/max) sub-clusters.
func ClusterProducts(ctx context.Context, dist *DistanceMatrix, sim *SimilarityMatrix, params Params) (*ClusterResult, error) {
	const stage = "cluster-engine"

	if !params.ClusterLinkage.Valid() {
		return nil, &InvalidParameterError{Stage: stage, Param: "linkage", Value: string(params.ClusterLinkage)}
	}
	n := len(dist.Products)
	if n < 2 {
		return nil, &ClusteringFailureError{Stage: stage, Reason: "fewer than 2 products"}
	}
	for _, v := range dist.condensed {
		if math.IsNaN(v) {
			return nil, &ClusteringFailureError{Stage: stage, Reason: "distance matrix contains NaN"}
		}
		if v < 0 {
			return nil, &ClusteringFailureError{Stage: stage, Reason: "distance matrix contains negative entries"}
		}
	}

	steps, err := agglomerate(ctx, n, dist.At, params.ClusterLinkage)
	if err != nil {
		return nil, err
	}

	k := params.NClusters
	if k > 0 {
		// Clamp a fixed count into the feasible range.
		if k > n {
			k = n
		}
	} else {
		k = selectClusterCount(n, steps, dist)
	}

	groups := cutTree(n, steps, k)

	if params.MaxClusterSize > 0 {
		groups, err = splitOversized(ctx, groups, dist, params.ClusterLinkage, params.MaxClusterSize)
		if err != nil {
			return nil, err
		}
	}

	// Final cluster IDs are dense and ordered by each cluster's
	// smallest member, which is its lexicographically smallest code.
	sort.Slice(groups, func(a, b int) bool { return groups[a][0] < groups[b][0] })

	labels := make([]int, n)
	coherence := make(map[int]float64, len(groups))
	for id, members := range groups {
		for _, p := range members {
			labels[p] = id
		}
		coherence[id] = clusterCoherence(sim, members)
	}

	return &ClusterResult{
		Assignment:   &ClusterAssignment{Products: dist.Products, Labels: labels},
		Coherence:    coherence,
		MergeHistory: steps,
		SelectedK:    k,
	}, nil
}

// agglomerate merges the two closest clusters under the linkage rule
// until one remains. Cluster distances are maintained with the
// Lance-Williams updates for single, complete and average linkage.
// at(i, j) supplies the leaf-level distance.
func agglomerate(ctx context.Context, n int, at func(i, j int) float64, linkage Linkage) ([]MergeStep, error) {
	// Working inter-cluster distance matrix over cluster slots.
	work := make([][]float64, n)
	for i := range work {
		work[i] = make([]float64, n)
		for j := range work[i] {
			work[i][j] = at(i, j)
		}
	}

	members := make([][]int, n)
	nodeID := make([]int, n)
	active := make([]bool, n)
	for i := 0; i < n; i++ {
		members[i] = []int{i}
		nodeID[i] = i
		active[i] = true
	}

	steps := make([]MergeStep, 0, n-1)

	for step := 0; step < n-1; step++ {
		if contextCancelled(ctx) {
			return nil, ctx.Err()
		}

		bi, bj := -1, -1
		bestDist := math.Inf(1)
		var bestKey []int

		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				d := work[i][j]
				switch {
				case d < bestDist:
					bi, bj, bestDist = i, j, d
					bestKey = nil
				case d == bestDist:
					// Equal merge distance: prefer the pair whose
					// combined member set is lexicographically
					// smallest by product index.
					if bestKey == nil {
						bestKey = mergeSorted(members[bi], members[bj])
					}
					key := mergeSorted(members[i], members[j])
					if lexLess(key, bestKey) {
						bi, bj, bestKey = i, j, key
					}
				}
			}
		}

		merged := mergeSorted(members[bi], members[bj])
		steps = append(steps, MergeStep{
			Step:     step,
			Left:     nodeID[bi],
			Right:    nodeID[bj],
			Distance: bestDist,
			Size:     len(merged),
		})

		szI := float64(len(members[bi]))
		szJ := float64(len(members[bj]))
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			var d float64
			switch linkage {
			case LinkageSingle:
				d = math.Min(work[bi][k], work[bj][k])
			case LinkageComplete:
				d = math.Max(work[bi][k], work[bj][k])
			case LinkageAverage:
				d = (szI*work[bi][k] + szJ*work[bj][k]) / (szI + szJ)
			}
			work[bi][k] = d
			work[k][bi] = d
		}

		members[bi] = merged
		nodeID[bi] = n + step
		active[bj] = false
	}

	return steps, nil
}

// mergeSorted merges two ascending int slices into one.
func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// lexLess reports whether a sorts before b element-wise.
func lexLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// cutTree replays the first n-k merges and returns the resulting k
// groups of leaf indices, each ascending.
func cutTree(n int, steps []MergeStep, k int) [][]int {
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	// repLeaf maps a dendrogram node to one of its leaves.
	repLeaf := make([]int, n+len(steps))
	for i := 0; i < n; i++ {
		repLeaf[i] = i
	}
	for s := 0; s < n-k; s++ {
		left := repLeaf[steps[s].Left]
		right := repLeaf[steps[s].Right]
		parent[find(right)] = find(left)
		repLeaf[n+s] = left
	}
	// Resolve representatives for the remaining steps so repLeaf stays
	// total even when the cut is above them.
	for s := n - k; s < len(steps); s++ {
		repLeaf[n+s] = repLeaf[steps[s].Left]
	}

	byRoot := make(map[int][]int)
	for leaf := 0; leaf < n; leaf++ {
		root := find(leaf)
		byRoot[root] = append(byRoot[root], leaf)
	}

	groups := make([][]int, 0, len(byRoot))
	for _, g := range byRoot {
		sort.Ints(g)
		groups = append(groups, g)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a][0] < groups[b][0] })
	return groups
}

// selectClusterCount evaluates candidate counts in [2, ceil(sqrt(n))]
// using average silhouette width over the distance matrix and returns
// the maximizing count, ties toward the smaller count.
func selectClusterCount(n int, steps []MergeStep, dist *DistanceMatrix) int {
	maxK := int(math.Ceil(math.Sqrt(float64(n))))
	if maxK > n {
		maxK = n
	}
	if maxK < 2 {
		maxK = 2
	}

	bestK := 2
	bestScore := math.Inf(-1)
	for k := 2; k <= maxK; k++ {
		labels := labelsFromGroups(n, cutTree(n, steps, k))
		score := silhouetteScore(dist, labels, k)
		if score > bestScore {
			bestK, bestScore = k, score
		}
	}
	return bestK
}

// labelsFromGroups flattens groups into a per-leaf label slice.
func labelsFromGroups(n int, groups [][]int) []int {
	labels := make([]int, n)
	for id, g := range groups {
		for _, leaf := range g {
			labels[leaf] = id
		}
	}
	return labels
}

// silhouetteScore computes the average silhouette width of a labeling.
// Points in singleton clusters score 0 by convention.
func silhouetteScore(dist *DistanceMatrix, labels []int, k int) float64 {
	n := len(labels)
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}

	var total float64
	for i := 0; i < n; i++ {
		own := labels[i]
		if sizes[own] < 2 {
			continue // silhouette of a singleton is 0
		}

		sums := make([]float64, k)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[labels[j]] += dist.At(i, j)
		}

		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if mean := sums[c] / float64(sizes[c]); mean < b {
				b = mean
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n)
}

// splitOversized recursively re-clusters any group larger than maxSize
// on its own sub-distance matrix into ceil(size/maxSize) sub-clusters
// under the same linkage.
func splitOversized(ctx context.Context, groups [][]int, dist *DistanceMatrix, linkage Linkage, maxSize int) ([][]int, error) {
	out := make([][]int, 0, len(groups))
	for _, g := range groups {
		if len(g) <= maxSize {
			out = append(out, g)
			continue
		}

		target := (len(g) + maxSize - 1) / maxSize
		local := g // ascending global leaf indices
		at := func(i, j int) float64 { return dist.At(local[i], local[j]) }

		steps, err := agglomerate(ctx, len(local), at, linkage)
		if err != nil {
			return nil, err
		}

		subGroups := cutTree(len(local), steps, target)
		mapped := make([][]int, len(subGroups))
		for s, sub := range subGroups {
			global := make([]int, len(sub))
			for i, idx := range sub {
				global[i] = local[idx]
			}
			mapped[s] = global
		}

		// A cut into ceil(size/max) parts can still leave an
		// oversized part; recurse until the bound holds.
		split, err := splitOversized(ctx, mapped, dist, linkage, maxSize)
		if err != nil {
			return nil, err
		}
		out = append(out, split...)
	}
	return out, nil
}

// clusterCoherence is the mean pairwise similarity among members.
func clusterCoherence(sim *SimilarityMatrix, members []int) float64 {
	if len(members) < 2 {
		return 1.0
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(members)-1; i++ {
		for j := i + 1; j < len(members); j++ {
			sum += sim.At(members[i], members[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}
