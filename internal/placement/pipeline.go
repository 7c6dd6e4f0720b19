// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package placement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slotwise/slotwise/internal/metrics"
)

// topPairCount is the number of most-similar pairs reported in the
// similarity statistics.
const topPairCount = 10

// Pipeline executes complete analysis runs. It holds no per-run state:
// every Run operates on its own immutable snapshot, so a single Pipeline
// is safe for concurrent runs with different parameter sets.
type Pipeline struct {
	logger zerolog.Logger
}

// NewPipeline creates a pipeline that logs through the given logger.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPipeline(logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With().Str("component", "placement").Logger(),
	}
}

// Run executes the four pipeline stages over one immutable snapshot of
// the transaction log and product catalog. A failed stage aborts the
// run and discards all partial artifacts; a retry starts over from the
// basket builder.
func (p *Pipeline) Run(ctx context.Context, records []TransactionRecord, catalog map[string]ProductInfo, params Params) (*RunResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	result, err := p.run(ctx, records, catalog, params, startedAt)
	metrics.RecordPipelineRun(time.Since(startedAt), err)
	if err != nil {
		return nil, err
	}

	metrics.RecordPipelineStages(result.Timings.BasketMS, result.Timings.SimilarityMS,
		result.Timings.ClusterMS, result.Timings.RecommendMS)
	metrics.RecordRunArtifacts(result.BasketStats.TotalProducts, result.BasketStats.TotalBaskets,
		len(result.Recommendations))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, records []TransactionRecord, catalog map[string]ProductInfo, params Params, startedAt time.Time) (*RunResult, error) {
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Logger()

	logger.Info().
		Int("records", len(records)).
		Int("min_support", params.MinSupport).
		Str("metric", string(params.SimilarityMetric)).
		Str("linkage", string(params.ClusterLinkage)).
		Msg("pipeline run starting")

	var timings StageTimings

	stageStart := time.Now()
	matrix, err := BuildBasketMatrix(ctx, records, params.MinSupport)
	if err != nil {
		return nil, fmt.Errorf("basket builder: %w", err)
	}
	timings.BasketMS = time.Since(stageStart).Milliseconds()
	basketStats := matrix.Stats()
	logger.Debug().
		Int("baskets", basketStats.TotalBaskets).
		Int("products", basketStats.TotalProducts).
		Int64("elapsed_ms", timings.BasketMS).
		Msg("basket matrix built")

	stageStart = time.Now()
	sim, dist, err := ComputeSimilarity(ctx, matrix, params.SimilarityMetric, params.workerCount())
	if err != nil {
		return nil, fmt.Errorf("similarity engine: %w", err)
	}
	timings.SimilarityMS = time.Since(stageStart).Milliseconds()
	simStats := sim.Stats(topPairCount)
	logger.Debug().
		Float64("mean_similarity", simStats.MeanSimilarity).
		Float64("sparsity", simStats.Sparsity).
		Int64("elapsed_ms", timings.SimilarityMS).
		Msg("similarity matrix computed")

	stageStart = time.Now()
	clusters, err := ClusterProducts(ctx, dist, sim, params)
	if err != nil {
		return nil, fmt.Errorf("cluster engine: %w", err)
	}
	timings.ClusterMS = time.Since(stageStart).Milliseconds()
	logger.Debug().
		Int("selected_k", clusters.SelectedK).
		Int("final_clusters", clusters.Assignment.ClusterCount()).
		Int64("elapsed_ms", timings.ClusterMS).
		Msg("clustering complete")

	stageStart = time.Now()
	recommendations, err := GenerateRecommendations(ctx, clusters.Assignment, clusters.Coherence, catalog, params)
	if err != nil {
		return nil, fmt.Errorf("recommendation engine: %w", err)
	}
	timings.RecommendMS = time.Since(stageStart).Milliseconds()

	completedAt := time.Now()
	logger.Info().
		Int("recommendations", len(recommendations)).
		Int64("total_ms", completedAt.Sub(startedAt).Milliseconds()).
		Msg("pipeline run complete")

	return &RunResult{
		RunID:           runID,
		Params:          params,
		StartedAt:       startedAt,
		CompletedAt:     completedAt,
		BasketStats:     basketStats,
		SimilarityStats: simStats,
		Assignment:      clusters.Assignment,
		Coherence:       clusters.Coherence,
		MergeHistory:    clusters.MergeHistory,
		Recommendations: recommendations,
		Summary:         Summarize(recommendations),
		Timings:         timings,
	}, nil
}
