// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/slotwise/slotwise/internal/database/query"
	"github.com/slotwise/slotwise/internal/metrics"
	"github.com/slotwise/slotwise/internal/placement"
)

// transactionFilter is the shared cleaning predicate for order lines:
// positive quantity, non-empty identifiers and description, and no
// cancellation invoices (invoice numbers starting with C).
const transactionFilter = `
	quantity > 0
	AND stock_code IS NOT NULL AND stock_code <> ''
	AND invoice_no IS NOT NULL AND invoice_no <> ''
	AND description IS NOT NULL AND description <> ''
	AND invoice_no NOT LIKE 'C%'`

// LoadFilter narrows LoadTransactions beyond the cleaning predicate.
// The zero value loads the full clean history.
type LoadFilter struct {
	// Limit caps the row count when positive.
	Limit int

	// Since restricts to invoices at or after this time when non-zero.
	Since time.Time

	// StockCodes restricts to the given products when non-empty.
	StockCodes []string

	// Countries restricts to the given origin countries when non-empty.
	Countries []string
}

// LoadTransactions reads cleaned order lines for a pipeline run,
// narrowed by the filter.
func (db *DB) LoadTransactions(ctx context.Context, filter LoadFilter) ([]placement.TransactionRecord, error) {
	start := time.Now()

	where, args := query.NewWhereBuilder().
		AddClause(transactionFilter).
		AddSince(filter.Since).
		AddStockCodes(filter.StockCodes).
		AddCountries(filter.Countries).
		Build()

	var sb strings.Builder
	sb.WriteString(`SELECT invoice_no, stock_code, description, quantity, unit_price, invoice_date
		FROM order_history
		WHERE `)
	sb.WriteString(where)
	sb.WriteString(" ORDER BY invoice_date, invoice_no, stock_code")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	metrics.RecordDBQuery("select", "order_history", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer closeRows(rows)

	var records []placement.TransactionRecord
	for rows.Next() {
		var rec placement.TransactionRecord
		var description string
		if err := rows.Scan(&rec.BasketID, &rec.ProductCode, &description, &rec.Quantity, &rec.UnitPrice, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}

	metrics.DBRowsLoaded.Add(float64(len(records)))
	return records, nil
}

// ProductCatalog aggregates per-product metadata from the cleaned order
// history: first observed description, mean unit price, total quantity
// sold and distinct order count.
func (db *DB) ProductCatalog(ctx context.Context) (map[string]placement.ProductInfo, error) {
	start := time.Now()

	stmt := `SELECT
			stock_code,
			first(description ORDER BY invoice_date) AS description,
			avg(unit_price) AS avg_unit_price,
			sum(quantity) AS total_quantity,
			count(DISTINCT invoice_no) AS order_count
		FROM order_history
		WHERE ` + transactionFilter + `
		GROUP BY stock_code`

	rows, err := db.conn.QueryContext(ctx, stmt)
	metrics.RecordDBQuery("aggregate", "order_history", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to build product catalog: %w", err)
	}
	defer closeRows(rows)

	catalog := make(map[string]placement.ProductInfo)
	for rows.Next() {
		var info placement.ProductInfo
		if err := rows.Scan(&info.StockCode, &info.Description, &info.AvgUnitPrice, &info.TotalQuantity, &info.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		catalog[info.StockCode] = info
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product catalog: %w", err)
	}
	return catalog, nil
}

// InsertTransactions appends order lines to the history.
func (db *DB) InsertTransactions(ctx context.Context, lines []OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO order_history
		(invoice_no, stock_code, description, quantity, invoice_date, unit_price, customer_id, country)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeStmt(stmt)

	for _, line := range lines {
		if _, err := stmt.ExecContext(ctx,
			line.InvoiceNo, line.StockCode, line.Description, line.Quantity,
			line.InvoiceDate, line.UnitPrice, line.CustomerID, line.Country); err != nil {
			metrics.RecordDBQuery("insert", "order_history", time.Since(start), err)
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	err = tx.Commit()
	metrics.RecordDBQuery("insert", "order_history", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to commit order lines: %w", err)
	}
	return nil
}

// TransactionCount returns the number of order lines in the history.
func (db *DB) TransactionCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT count(*) FROM order_history").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// OrderLine is one raw row of the order history.
type OrderLine struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    int
	InvoiceDate time.Time
	UnitPrice   float64
	CustomerID  string
	Country     string
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logQuietClose(err, "rows")
	}
}

func closeStmt(stmt *sql.Stmt) {
	if err := stmt.Close(); err != nil {
		logQuietClose(err, "statement")
	}
}

func rollbackQuietly(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		logQuietClose(err, "transaction rollback")
	}
}
