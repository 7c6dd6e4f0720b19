// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

// Package query provides SQL construction helpers for the database
// package: parameterized WHERE clauses over the order history.
package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized
// arguments, keeping placeholder and argument order in lockstep.
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw condition fragment with its bound arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddSince restricts invoice_date to rows at or after the given time.
// Zero times are skipped.
func (wb *WhereBuilder) AddSince(since time.Time) *WhereBuilder {
	if !since.IsZero() {
		wb.clauses = append(wb.clauses, "invoice_date >= ?")
		wb.args = append(wb.args, since)
	}
	return wb
}

// AddStockCodes adds a stock code filter using an IN clause. Empty
// slices are skipped.
func (wb *WhereBuilder) AddStockCodes(codes []string) *WhereBuilder {
	if len(codes) > 0 {
		placeholders := make([]string, len(codes))
		for i, code := range codes {
			placeholders[i] = "?"
			wb.args = append(wb.args, code)
		}
		wb.clauses = append(wb.clauses, fmt.Sprintf("stock_code IN (%s)", strings.Join(placeholders, ", ")))
	}
	return wb
}

// AddCountries adds a country filter using an IN clause. Empty slices
// are skipped.
func (wb *WhereBuilder) AddCountries(countries []string) *WhereBuilder {
	if len(countries) > 0 {
		placeholders := make([]string, len(countries))
		for i, country := range countries {
			placeholders[i] = "?"
			wb.args = append(wb.args, country)
		}
		wb.clauses = append(wb.clauses, fmt.Sprintf("country IN (%s)", strings.Join(placeholders, ", ")))
	}
	return wb
}

// Build returns the WHERE clause body (without the keyword) and its
// arguments. With no clauses it returns "1=1" so callers can always
// interpolate.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// Count returns the number of clauses added.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
