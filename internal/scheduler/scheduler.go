// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic sync passes on a cron schedule.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron instance running the mirror's periodic jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates an empty scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
	}
}

// Add registers a named job on a cron schedule. Supports standard cron
// expressions plus descriptors like "@every 5m".
func (s *Scheduler) Add(name, schedule string, job func()) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		start := time.Now()
		s.logger.Debug("scheduled job started", "job", name)
		job()
		s.logger.Debug("scheduled job finished", "job", name,
			"duration", time.Since(start).Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("scheduling job %s (%q): %w", name, schedule, err)
	}
	s.logger.Info("job scheduled", "job", name, "schedule", schedule, "entry", int(entryID))
	return nil
}

// Start begins running scheduled jobs in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
