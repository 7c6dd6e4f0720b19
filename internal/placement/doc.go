// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

// Package placement implements the product colocation analysis pipeline.
//
// # Architecture
//
// The pipeline mines historical order data for co-purchase patterns and
// groups products into placement clusters. Data flows strictly forward
// through four stages:
//
//	transactions -> basket matrix -> similarity/distance matrix
//	             -> cluster assignment -> ranked recommendations
//
// Each stage consumes only the previous stage's output plus its own
// parameters; no stage reaches back into upstream state.
//
//   - Basket Builder: binary basket x product occurrence matrix,
//     filtered by minimum support
//   - Similarity Engine: pairwise product similarity (jaccard, cosine,
//     lift) and the derived distance matrix
//   - Cluster Engine: agglomerative hierarchical clustering with
//     selectable linkage, silhouette-based auto-k, and size-bounded
//     splitting
//   - Recommendation Engine: ranked, explained, persistence-ready
//     placement records
//
// # Design Principles
//
//   - Deterministic: identical input and parameters produce identical
//     cluster assignments and recommendation lists across runs
//   - Immutable: every run operates on its own snapshot; artifacts are
//     never mutated after construction and never shared between runs
//   - Fail fast: each stage validates its inputs at entry; numerical
//     anomalies (NaN or negative distances) abort the run rather than
//     being masked into plausible-looking output
//   - Cancellable: cooperative cancellation is checked between basket
//     and product iterations and between merge steps
//
// # Usage
//
//	pipe := placement.NewPipeline(logger)
//	result, err := pipe.Run(ctx, records, catalog, placement.DefaultParams())
//
// # Concurrency
//
// Pairwise similarity computation and per-cluster recommendation scoring
// fan out across a bounded worker pool over immutable shared matrices.
// The merge loop of the cluster engine is inherently sequential and runs
// single-threaded per run. Multiple runs may execute concurrently since
// no state is shared between them.
package placement
