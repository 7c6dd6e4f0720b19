// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates the tables and indexes.
//
// Tables:
//   - order_history: the historical transaction log the pipeline reads
//   - recommendation_runs: one row per completed pipeline run, with the
//     parameters and merge history serialized as JSON
//   - recommendation_clusters: ranked cluster records per run
//   - recommendation_products: cluster membership per run
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS order_history (
			invoice_no TEXT NOT NULL,
			stock_code TEXT NOT NULL,
			description TEXT,
			quantity INTEGER NOT NULL,
			invoice_date TIMESTAMP NOT NULL,
			unit_price DOUBLE NOT NULL,
			customer_id TEXT,
			country TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS recommendation_runs (
			run_id UUID PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP NOT NULL,
			params JSON NOT NULL,
			merge_history JSON NOT NULL,
			basket_count INTEGER NOT NULL,
			product_count INTEGER NOT NULL,
			recommendation_count INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS recommendation_clusters (
			run_id UUID NOT NULL,
			cluster_id INTEGER NOT NULL,
			coherence_score DOUBLE NOT NULL,
			recommendation_strength DOUBLE NOT NULL,
			total_quantity_sold INTEGER NOT NULL,
			avg_unit_price DOUBLE NOT NULL,
			explanation TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, cluster_id)
		)`,

		`CREATE TABLE IF NOT EXISTS recommendation_products (
			run_id UUID NOT NULL,
			cluster_id INTEGER NOT NULL,
			stock_code TEXT NOT NULL,
			description TEXT,
			quantity INTEGER NOT NULL,
			PRIMARY KEY (run_id, cluster_id, stock_code)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_order_history_invoice
			ON order_history (invoice_no)`,
		`CREATE INDEX IF NOT EXISTS idx_order_history_stock
			ON order_history (stock_code)`,
		`CREATE INDEX IF NOT EXISTS idx_order_history_date
			ON order_history (invoice_date)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendation_runs_completed
			ON recommendation_runs (completed_at)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}
