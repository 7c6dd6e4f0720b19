// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package placement

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/slotwise/slotwise/internal/metrics"
)

func pipelineParams() Params {
	return Params{
		MinSupport:       2,
		SimilarityMetric: MetricJaccard,
		NClusters:        2,
		ClusterLinkage:   LinkageComplete,
		MaxClusterSize:   10,
		TopN:             5,
		MinClusterSize:   1,
		Workers:          1,
	}
}

func TestPipelineRun(t *testing.T) {
	pipeline := NewPipeline(zerolog.Nop())

	result, err := pipeline.Run(context.Background(), fixtureRecords(), fixtureCatalog(), pipelineParams())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID is empty")
	}
	if result.CompletedAt.Before(result.StartedAt) {
		t.Error("CompletedAt precedes StartedAt")
	}

	if result.BasketStats.TotalBaskets != 3 || result.BasketStats.TotalProducts != 3 {
		t.Errorf("BasketStats = %d baskets / %d products, want 3/3",
			result.BasketStats.TotalBaskets, result.BasketStats.TotalProducts)
	}
	if result.SimilarityStats.TotalPairs != 3 {
		t.Errorf("SimilarityStats.TotalPairs = %d, want 3", result.SimilarityStats.TotalPairs)
	}

	wantLabels := []int{0, 0, 1}
	for i, want := range wantLabels {
		if result.Assignment.Labels[i] != want {
			t.Errorf("Labels[%s] = %d, want %d", result.Assignment.Products[i], result.Assignment.Labels[i], want)
		}
	}
	if len(result.MergeHistory) != 2 {
		t.Errorf("len(MergeHistory) = %d, want 2", len(result.MergeHistory))
	}

	if len(result.Recommendations) != 2 {
		t.Fatalf("len(Recommendations) = %d, want 2", len(result.Recommendations))
	}

	// The {A,B} pair outranks the {C} singleton:
	// (2/3)*ln(51)*0.2 > 1.0*ln(6)*0.1.
	first := result.Recommendations[0]
	if first.ClusterID != 0 {
		t.Errorf("Recommendations[0].ClusterID = %d, want 0", first.ClusterID)
	}
	wantStrength := (2.0 / 3.0) * math.Log(51) * 0.2
	if math.Abs(first.RecommendationStrength-wantStrength) > floatTolerance {
		t.Errorf("Recommendations[0].RecommendationStrength = %v, want %v", first.RecommendationStrength, wantStrength)
	}

	if result.Summary.TotalRecommendations != 2 {
		t.Errorf("Summary.TotalRecommendations = %d, want 2", result.Summary.TotalRecommendations)
	}
}

func TestPipelineRunIdempotent(t *testing.T) {
	pipeline := NewPipeline(zerolog.Nop())

	first, err := pipeline.Run(context.Background(), fixtureRecords(), fixtureCatalog(), pipelineParams())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for run := 0; run < 3; run++ {
		next, err := pipeline.Run(context.Background(), fixtureRecords(), fixtureCatalog(), pipelineParams())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		for i := range first.Assignment.Labels {
			if next.Assignment.Labels[i] != first.Assignment.Labels[i] {
				t.Fatalf("run %d: Labels[%d] = %d, want %d",
					run, i, next.Assignment.Labels[i], first.Assignment.Labels[i])
			}
		}
		if len(next.Recommendations) != len(first.Recommendations) {
			t.Fatalf("run %d: %d recommendations, want %d", run, len(next.Recommendations), len(first.Recommendations))
		}
		for i := range first.Recommendations {
			if next.Recommendations[i].ClusterID != first.Recommendations[i].ClusterID {
				t.Errorf("run %d: Recommendations[%d].ClusterID = %d, want %d",
					run, i, next.Recommendations[i].ClusterID, first.Recommendations[i].ClusterID)
			}
			if next.Recommendations[i].RecommendationStrength != first.Recommendations[i].RecommendationStrength {
				t.Errorf("run %d: Recommendations[%d].RecommendationStrength differs", run, i)
			}
		}
	}
}

func TestPipelineRunValidatesParams(t *testing.T) {
	pipeline := NewPipeline(zerolog.Nop())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative min_support", func(p *Params) { p.MinSupport = -1 }},
		{"unknown metric", func(p *Params) { p.SimilarityMetric = "pearson" }},
		{"negative n_clusters", func(p *Params) { p.NClusters = -1 }},
		{"unknown linkage", func(p *Params) { p.ClusterLinkage = "ward" }},
		{"zero max_cluster_size", func(p *Params) { p.MaxClusterSize = 0 }},
		{"zero top_n", func(p *Params) { p.TopN = 0 }},
		{"zero min_cluster_size", func(p *Params) { p.MinClusterSize = 0 }},
		{"min_coherence above one", func(p *Params) { p.MinCoherence = 1.5 }},
		{"negative workers", func(p *Params) { p.Workers = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := pipelineParams()
			tt.mutate(&params)
			_, err := pipeline.Run(context.Background(), fixtureRecords(), fixtureCatalog(), params)
			if err == nil {
				t.Fatal("Run() error = nil, want validation error")
			}
		})
	}
}

func TestPipelineRunInsufficientData(t *testing.T) {
	pipeline := NewPipeline(zerolog.Nop())

	params := pipelineParams()
	params.MinSupport = 100

	_, err := pipeline.Run(context.Background(), fixtureRecords(), fixtureCatalog(), params)
	var target *InsufficientDataError
	if !errors.As(err, &target) {
		t.Errorf("error = %v, want wrapped InsufficientDataError", err)
	}
}

func TestPipelineRunCancellation(t *testing.T) {
	pipeline := NewPipeline(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Run(ctx, fixtureRecords(), fixtureCatalog(), pipelineParams())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestPipelineRunRecordsMetrics(t *testing.T) {
	pipeline := NewPipeline(zerolog.Nop())

	successBefore := testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues("success"))
	failureBefore := testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues("failure"))

	result, err := pipeline.Run(context.Background(), fixtureRecords(), fixtureCatalog(), pipelineParams())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues("success")); got != successBefore+1 {
		t.Errorf("success counter = %v, want %v", got, successBefore+1)
	}
	if got := testutil.ToFloat64(metrics.PipelineProductsRetained); got != float64(result.BasketStats.TotalProducts) {
		t.Errorf("products gauge = %v, want %v", got, result.BasketStats.TotalProducts)
	}
	if got := testutil.ToFloat64(metrics.PipelineRecommendations); got != float64(len(result.Recommendations)) {
		t.Errorf("recommendations gauge = %v, want %v", got, len(result.Recommendations))
	}

	params := pipelineParams()
	params.MinSupport = 100
	if _, err := pipeline.Run(context.Background(), fixtureRecords(), fixtureCatalog(), params); err == nil {
		t.Fatal("Run() error = nil with unattainable support")
	}
	if got := testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues("failure")); got != failureBefore+1 {
		t.Errorf("failure counter = %v, want %v", got, failureBefore+1)
	}
}

func TestPipelineRunUniqueRunIDs(t *testing.T) {
	pipeline := NewPipeline(zerolog.Nop())

	a, err := pipeline.Run(context.Background(), fixtureRecords(), fixtureCatalog(), pipelineParams())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	b, err := pipeline.Run(context.Background(), fixtureRecords(), fixtureCatalog(), pipelineParams())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if a.RunID == b.RunID {
		t.Errorf("consecutive runs share RunID %q", a.RunID)
	}
}
