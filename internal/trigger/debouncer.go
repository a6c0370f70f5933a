// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package trigger coalesces change notifications from the remote CMS
// into sync runs.
package trigger

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DebounceConfig holds debouncer configuration.
type DebounceConfig struct {
	// Interval is the debounce window duration. Notifications within
	// this window are coalesced into a single run.
	Interval time.Duration

	// MaxWait is the maximum time to wait before running. Even if
	// notifications keep coming, run after this time.
	MaxWait time.Duration
}

// DefaultDebounceConfig returns default debounce configuration.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		Interval: 2 * time.Second,
		MaxWait:  15 * time.Second,
	}
}

// Debouncer coalesces rapid-fire change notifications into single sync
// runs. A publish in the CMS typically fires several notifications in
// quick succession; only one pass is needed.
type Debouncer struct {
	run    func(context.Context)
	config DebounceConfig
	logger *slog.Logger

	mu        sync.Mutex
	timer     *time.Timer
	firstSeen time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDebouncer creates a debouncer invoking run once per coalesced
// burst of notifications.
func NewDebouncer(run func(context.Context), config DebounceConfig, logger *slog.Logger) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{
		run:    run,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Notify records a change notification, scheduling (or postponing) the
// coalesced run.
func (d *Debouncer) Notify() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if d.timer == nil {
		d.firstSeen = now
		d.timer = time.AfterFunc(d.config.Interval, d.fire)
		return
	}

	// Postpone, but never past MaxWait from the first notification.
	remaining := d.config.MaxWait - now.Sub(d.firstSeen)
	delay := d.config.Interval
	if remaining < delay {
		delay = remaining
	}
	if delay <= 0 {
		return // MaxWait reached, let the pending timer fire
	}
	d.timer.Reset(delay)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if d.ctx.Err() != nil {
			return
		}
		d.logger.Debug("debounced sync triggered")
		d.run(d.ctx)
	}()
}

// Close stops the debouncer and waits for an in-flight run to finish.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
