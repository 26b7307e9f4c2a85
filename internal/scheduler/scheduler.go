// Package scheduler runs the recurring audit snapshot: the stored trade set
// is re-audited on a cron schedule and the report persisted, so the web UI
// always has a fresh report without waiting for an upload.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dproquant/tradecheck/internal/engine"
	"github.com/dproquant/tradecheck/internal/store"
	"github.com/dproquant/tradecheck/pkg/logger"
)

// Scheduler owns the cron instance and the snapshot job.
type Scheduler struct {
	cron    *cron.Cron
	auditor *engine.Auditor
	repo    *store.Repository
	logger  *logger.Logger
}

// New creates a scheduler. The cron spec uses six fields (with seconds),
// e.g. "0 30 6 * * *" for 06:30 daily.
func New(auditor *engine.Auditor, repo *store.Repository, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		auditor: auditor,
		repo:    repo,
		logger:  log,
	}
}

// Start registers the snapshot job and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runSnapshot); err != nil {
		return fmt.Errorf("schedule snapshot job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("schedule", spec).Info("Audit snapshot job scheduled")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()

	trades, err := s.repo.ListTrades(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Snapshot: failed to load trades")
		return
	}
	if len(trades) == 0 {
		s.logger.Debug("Snapshot: no stored trades, skipping")
		return
	}

	report, err := s.auditor.Run(trades)
	if err != nil {
		s.logger.WithError(err).Error("Snapshot: audit failed")
		return
	}

	id, err := s.repo.SaveReport(ctx, report)
	if err != nil {
		s.logger.WithError(err).Error("Snapshot: failed to persist report")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"report_id": id,
		"trades":    len(trades),
		"duration":  time.Since(start),
	}).Info("Audit snapshot saved")
}
