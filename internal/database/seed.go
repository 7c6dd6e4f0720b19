// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/slotwise/slotwise/internal/logging"
)

// SeedDemoData loads a small built-in transaction set when the order
// history is empty. It is a no-op otherwise, so restarts never
// duplicate data.
func (db *DB) SeedDemoData(ctx context.Context) error {
	count, err := db.TransactionCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logging.Debug().Int("rows", count).Msg("order history present, skipping demo seed")
		return nil
	}

	lines := demoOrderLines()
	if err := db.InsertTransactions(ctx, lines); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	logging.Info().Int("rows", len(lines)).Msg("seeded demo order history")
	return nil
}

// demoOrderLines returns a compact order history with overlapping
// purchase patterns, enough for a pipeline run at low min_support.
func demoOrderLines() []OrderLine {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	products := map[string]struct {
		description string
		price       float64
	}{
		"85123A": {"WHITE HANGING HEART T-LIGHT HOLDER", 2.55},
		"71053":  {"WHITE METAL LANTERN", 3.39},
		"84406B": {"CREAM CUPID HEARTS COAT HANGER", 2.75},
		"22423":  {"REGENCY CAKESTAND 3 TIER", 12.75},
		"47566":  {"PARTY BUNTING", 4.95},
		"20725":  {"LUNCH BAG RED RETROSPOT", 1.65},
		"20727":  {"LUNCH BAG BLACK SKULL", 1.65},
		"22383":  {"LUNCH BAG SUKI DESIGN", 1.65},
	}

	// Invoices pair the lunch bags together and the t-light holder with
	// the lantern, so the demo run produces visible clusters.
	invoices := []struct {
		invoice string
		items   []string
	}{
		{"536365", []string{"85123A", "71053", "84406B"}},
		{"536366", []string{"85123A", "71053"}},
		{"536367", []string{"85123A", "71053", "22423"}},
		{"536368", []string{"20725", "20727", "22383"}},
		{"536369", []string{"20725", "20727"}},
		{"536370", []string{"20725", "22383"}},
		{"536371", []string{"20727", "22383", "47566"}},
		{"536372", []string{"85123A", "84406B"}},
		{"536373", []string{"22423", "47566"}},
		{"536374", []string{"20725", "20727", "22383", "47566"}},
	}

	var lines []OrderLine
	for i, inv := range invoices {
		when := base.Add(time.Duration(i) * 6 * time.Hour)
		for j, code := range inv.items {
			p := products[code]
			lines = append(lines, OrderLine{
				InvoiceNo:   inv.invoice,
				StockCode:   code,
				Description: p.description,
				Quantity:    2 + (i+j)%5,
				InvoiceDate: when,
				UnitPrice:   p.price,
				CustomerID:  fmt.Sprintf("1785%d", 10+i),
				Country:     "United Kingdom",
			})
		}
	}
	return lines
}
