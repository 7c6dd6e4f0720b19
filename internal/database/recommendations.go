// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/slotwise/slotwise/internal/metrics"
	"github.com/slotwise/slotwise/internal/placement"
)

// ErrNoRuns indicates that no pipeline run has been persisted yet.
var ErrNoRuns = errors.New("no recommendation runs recorded")

// RunSummary is the persisted metadata of one pipeline run.
type RunSummary struct {
	RunID               string           `json:"run_id"`
	StartedAt           time.Time        `json:"started_at"`
	CompletedAt         time.Time        `json:"completed_at"`
	Params              placement.Params `json:"params"`
	BasketCount         int              `json:"basket_count"`
	ProductCount        int              `json:"product_count"`
	RecommendationCount int              `json:"recommendation_count"`
}

// SaveRun persists one completed pipeline run: the run row plus its
// cluster and product records, in a single transaction.
func (db *DB) SaveRun(ctx context.Context, result *placement.RunResult) error {
	start := time.Now()

	paramsJSON, err := json.Marshal(result.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal run params: %w", err)
	}
	historyJSON, err := json.Marshal(result.MergeHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal merge history: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx, `INSERT INTO recommendation_runs
		(run_id, started_at, completed_at, params, merge_history, basket_count, product_count, recommendation_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.StartedAt, result.CompletedAt,
		string(paramsJSON), string(historyJSON),
		result.BasketStats.TotalBaskets, result.BasketStats.TotalProducts,
		len(result.Recommendations)); err != nil {
		metrics.RecordDBQuery("insert", "recommendation_runs", time.Since(start), err)
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, cluster := range result.Recommendations {
		if _, err := tx.ExecContext(ctx, `INSERT INTO recommendation_clusters
			(run_id, cluster_id, coherence_score, recommendation_strength, total_quantity_sold, avg_unit_price, explanation)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			result.RunID, cluster.ClusterID, cluster.CoherenceScore,
			cluster.RecommendationStrength, cluster.TotalQuantitySold,
			cluster.AvgUnitPrice, cluster.Explanation); err != nil {
			metrics.RecordDBQuery("insert", "recommendation_clusters", time.Since(start), err)
			return fmt.Errorf("failed to insert cluster %d: %w", cluster.ClusterID, err)
		}

		for _, product := range cluster.Products {
			if _, err := tx.ExecContext(ctx, `INSERT INTO recommendation_products
				(run_id, cluster_id, stock_code, description, quantity)
				VALUES (?, ?, ?, ?, ?)`,
				result.RunID, cluster.ClusterID, product.StockCode,
				product.Description, product.Quantity); err != nil {
				metrics.RecordDBQuery("insert", "recommendation_products", time.Since(start), err)
				return fmt.Errorf("failed to insert product %s: %w", product.StockCode, err)
			}
		}
	}

	err = tx.Commit()
	metrics.RecordDBQuery("insert", "recommendation_runs", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// LatestRun returns the metadata of the most recently completed run, or
// ErrNoRuns when none exist.
func (db *DB) LatestRun(ctx context.Context) (*RunSummary, error) {
	start := time.Now()

	var summary RunSummary
	var paramsJSON string
	err := db.conn.QueryRowContext(ctx, `SELECT
			run_id, started_at, completed_at, params, basket_count, product_count, recommendation_count
		FROM recommendation_runs
		ORDER BY completed_at DESC
		LIMIT 1`).Scan(
		&summary.RunID, &summary.StartedAt, &summary.CompletedAt, &paramsJSON,
		&summary.BasketCount, &summary.ProductCount, &summary.RecommendationCount)
	metrics.RecordDBQuery("select", "recommendation_runs", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}

	if err := json.Unmarshal([]byte(paramsJSON), &summary.Params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run params: %w", err)
	}
	return &summary, nil
}

// LatestRecommendations returns the persisted recommendations of the
// most recent run, ranked by strength, along with the run metadata.
func (db *DB) LatestRecommendations(ctx context.Context) (*RunSummary, []placement.RecommendationCluster, error) {
	summary, err := db.LatestRun(ctx)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT
			cluster_id, coherence_score, recommendation_strength, total_quantity_sold, avg_unit_price, explanation
		FROM recommendation_clusters
		WHERE run_id = ?
		ORDER BY recommendation_strength DESC, cluster_id`, summary.RunID)
	metrics.RecordDBQuery("select", "recommendation_clusters", time.Since(start), err)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load clusters: %w", err)
	}
	defer closeRows(rows)

	var clusters []placement.RecommendationCluster
	for rows.Next() {
		var c placement.RecommendationCluster
		if err := rows.Scan(&c.ClusterID, &c.CoherenceScore, &c.RecommendationStrength,
			&c.TotalQuantitySold, &c.AvgUnitPrice, &c.Explanation); err != nil {
			return nil, nil, fmt.Errorf("failed to scan cluster row: %w", err)
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read clusters: %w", err)
	}

	for i := range clusters {
		products, err := db.clusterProducts(ctx, summary.RunID, clusters[i].ClusterID)
		if err != nil {
			return nil, nil, err
		}
		clusters[i].Products = products
	}
	return summary, clusters, nil
}

// clusterProducts loads the member products of one persisted cluster.
func (db *DB) clusterProducts(ctx context.Context, runID string, clusterID int) ([]placement.RecommendationProduct, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT stock_code, description, quantity
		FROM recommendation_products
		WHERE run_id = ? AND cluster_id = ?
		ORDER BY stock_code`, runID, clusterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster products: %w", err)
	}
	defer closeRows(rows)

	var products []placement.RecommendationProduct
	for rows.Next() {
		var p placement.RecommendationProduct
		if err := rows.Scan(&p.StockCode, &p.Description, &p.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cluster products: %w", err)
	}
	return products, nil
}

// LatestMergeHistory returns the dendrogram of the most recent run.
func (db *DB) LatestMergeHistory(ctx context.Context) (*RunSummary, []placement.MergeStep, error) {
	summary, err := db.LatestRun(ctx)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	var historyJSON string
	err = db.conn.QueryRowContext(ctx,
		"SELECT merge_history FROM recommendation_runs WHERE run_id = ?",
		summary.RunID).Scan(&historyJSON)
	metrics.RecordDBQuery("select", "recommendation_runs", time.Since(start), err)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load merge history: %w", err)
	}

	var steps []placement.MergeStep
	if err := json.Unmarshal([]byte(historyJSON), &steps); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal merge history: %w", err)
	}
	return summary, steps, nil
}
