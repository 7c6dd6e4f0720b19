// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package services

import (
	"context"
	"time"

	"github.com/slotwise/slotwise/internal/database"
	"github.com/slotwise/slotwise/internal/logging"
	"github.com/slotwise/slotwise/internal/placement"
)

// RunStore is the persistence surface the scheduler needs.
type RunStore interface {
	LoadTransactions(ctx context.Context, filter database.LoadFilter) ([]placement.TransactionRecord, error)
	ProductCatalog(ctx context.Context) (map[string]placement.ProductInfo, error)
	SaveRun(ctx context.Context, result *placement.RunResult) error
}

// SchedulerConfig holds the scheduled-run settings.
type SchedulerConfig struct {
	// Interval between runs. Must be positive.
	Interval time.Duration

	// Params used for every scheduled run.
	Params placement.Params

	// LoadLimit caps order lines per run. Zero loads everything.
	LoadLimit int

	// LoadDaysBack restricts the transaction window. Zero loads the
	// full history.
	LoadDaysBack int
}

// SchedulerService re-runs the placement pipeline on a fixed interval
// and persists each result. A failed run is logged and the schedule
// continues; thin data is an expected condition, not a crash.
type SchedulerService struct {
	store    RunStore
	pipeline *placement.Pipeline
	cfg      SchedulerConfig
	name     string
}

// NewSchedulerService creates the scheduled-run service.
func NewSchedulerService(store RunStore, pipeline *placement.Pipeline, cfg SchedulerConfig) *SchedulerService {
	return &SchedulerService{
		store:    store,
		pipeline: pipeline,
		cfg:      cfg,
		name:     "pipeline-scheduler",
	}
}

// Serve implements suture.Service. The first run happens after one full
// interval; startup runs are the API trigger's job.
func (s *SchedulerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes and persists a single scheduled run.
func (s *SchedulerService) runOnce(ctx context.Context) {
	var since time.Time
	if s.cfg.LoadDaysBack > 0 {
		since = time.Now().AddDate(0, 0, -s.cfg.LoadDaysBack)
	}

	records, err := s.store.LoadTransactions(ctx, database.LoadFilter{Limit: s.cfg.LoadLimit, Since: since})
	if err != nil {
		logging.Error().Err(err).Msg("scheduled run: failed to load order history")
		return
	}
	catalog, err := s.store.ProductCatalog(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("scheduled run: failed to load product catalog")
		return
	}

	result, err := s.pipeline.Run(ctx, records, catalog, s.cfg.Params)
	if err != nil {
		logging.Warn().Err(err).Msg("scheduled run did not complete")
		return
	}

	if err := s.store.SaveRun(ctx, result); err != nil {
		logging.Error().Err(err).Str("run_id", result.RunID).Msg("scheduled run: failed to persist result")
		return
	}

	logging.Info().
		Str("run_id", result.RunID).
		Int("recommendations", len(result.Recommendations)).
		Msg("scheduled run completed")
}

// String implements fmt.Stringer for suture's log messages.
func (s *SchedulerService) String() string {
	return s.name
}
