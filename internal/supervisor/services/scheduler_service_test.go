// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/slotwise/slotwise/internal/database"
	"github.com/slotwise/slotwise/internal/placement"
)

// memoryRunStore is an in-memory RunStore double.
type memoryRunStore struct {
	mu      sync.Mutex
	records []placement.TransactionRecord
	catalog map[string]placement.ProductInfo
	loadErr error
	saved   []*placement.RunResult
}

func (s *memoryRunStore) LoadTransactions(_ context.Context, filter database.LoadFilter) ([]placement.TransactionRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if filter.Limit > 0 && filter.Limit < len(s.records) {
		return s.records[:filter.Limit], nil
	}
	return s.records, nil
}

func (s *memoryRunStore) ProductCatalog(context.Context) (map[string]placement.ProductInfo, error) {
	return s.catalog, nil
}

func (s *memoryRunStore) SaveRun(_ context.Context, result *placement.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, result)
	return nil
}

func (s *memoryRunStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func schedulerFixture() *memoryRunStore {
	when := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	lines := []struct{ basket, product string }{
		{"B1", "A"}, {"B1", "B"}, {"B1", "C"},
		{"B2", "A"}, {"B2", "B"},
		{"B3", "A"}, {"B3", "C"},
		{"B4", "D"},
	}
	store := &memoryRunStore{
		catalog: map[string]placement.ProductInfo{
			"A": {StockCode: "A", Description: "RED SPOTTY MUG", AvgUnitPrice: 2.5, TotalQuantity: 30},
			"B": {StockCode: "B", Description: "BLUE SPOTTY MUG", AvgUnitPrice: 3.5, TotalQuantity: 20},
			"C": {StockCode: "C", Description: "TEA TOWEL", AvgUnitPrice: 1.0, TotalQuantity: 5},
		},
	}
	for _, l := range lines {
		store.records = append(store.records, placement.TransactionRecord{
			BasketID:    l.basket,
			ProductCode: l.product,
			Quantity:    1,
			UnitPrice:   2.5,
			Timestamp:   when,
		})
	}
	return store
}

func schedulerParams() placement.Params {
	params := placement.DefaultParams()
	params.MinSupport = 2
	params.NClusters = 2
	params.MinClusterSize = 1
	params.Workers = 1
	return params
}

func TestSchedulerServiceInterface(t *testing.T) {
	var _ suture.Service = (*SchedulerService)(nil)
}

func TestSchedulerServiceRunsOnInterval(t *testing.T) {
	store := schedulerFixture()
	svc := NewSchedulerService(store, placement.NewPipeline(zerolog.Nop()), SchedulerConfig{
		Interval: 20 * time.Millisecond,
		Params:   schedulerParams(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.After(3 * time.Second)
	for store.savedCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("saved %d runs, want >= 2", store.savedCount())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	for _, run := range store.saved {
		if len(run.Recommendations) == 0 {
			t.Errorf("run %s persisted no recommendations", run.RunID)
		}
	}
}

func TestSchedulerServiceSurvivesLoadFailure(t *testing.T) {
	store := schedulerFixture()
	store.loadErr = errors.New("database locked")
	svc := NewSchedulerService(store, placement.NewPipeline(zerolog.Nop()), SchedulerConfig{
		Interval: 10 * time.Millisecond,
		Params:   schedulerParams(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The service must keep its schedule through failed runs and only
	// return when the context ends.
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want context.DeadlineExceeded", err)
	}
	if store.savedCount() != 0 {
		t.Errorf("saved %d runs despite load failures", store.savedCount())
	}
}

func TestSchedulerServiceSurvivesThinData(t *testing.T) {
	store := schedulerFixture()
	cfg := SchedulerConfig{
		Interval: 10 * time.Millisecond,
		Params:   schedulerParams(),
	}
	cfg.Params.MinSupport = 100
	svc := NewSchedulerService(store, placement.NewPipeline(zerolog.Nop()), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want context.DeadlineExceeded", err)
	}
	if store.savedCount() != 0 {
		t.Errorf("saved %d runs despite insufficient data", store.savedCount())
	}
}
