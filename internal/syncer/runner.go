// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package syncer drives cursor-based incremental sync passes against
// the remote content source, one language at a time.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/graphmirror/internal/model"
	"github.com/olegiv/graphmirror/internal/node"
	"github.com/olegiv/graphmirror/internal/remote"
)

// Options configures a sync runner.
type Options struct {
	// Languages are processed strictly sequentially.
	Languages []string

	// Channel is the sitemap channel reference name.
	Channel string

	// PageSize bounds each change-log fetch.
	PageSize int

	// MaxDepth is the expansion budget for item subtrees.
	MaxDepth int
}

// RunInfo describes the most recent completed pass.
type RunInfo struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	SweptNodes int64         `json:"swept_nodes"`
	Error      string        `json:"error,omitempty"`
}

// Runner executes full sync passes. Only one pass runs at a time;
// within a pass, item sync fully drains before page sync begins and
// dependency propagation completes before cursor state is persisted.
type Runner struct {
	source  remote.Source
	store   node.Store
	logger  *slog.Logger
	opts    Options
	mu      sync.Mutex
	lastRun atomic.Pointer[RunInfo]
}

// NewRunner creates a sync runner.
func NewRunner(source remote.Source, store node.Store, logger *slog.Logger, opts Options) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	return &Runner{source: source, store: store, logger: logger, opts: opts}
}

// LastRun returns info about the most recent pass, nil before the first.
func (r *Runner) LastRun() *RunInfo {
	return r.lastRun.Load()
}

// RunPass executes one full sync pass: mark previously materialized
// nodes live, drain every language, then sweep whatever was left
// unmarked. Per-language failures are contained; the first one is
// returned after all languages were attempted.
func (r *Runner) RunPass(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)
	start := time.Now()
	info := &RunInfo{RunID: runID, StartedAt: start}

	logger.Info("sync pass started", "languages", r.opts.Languages)

	if err := r.touchAllNodes(ctx, logger); err != nil {
		info.Error = err.Error()
		r.lastRun.Store(info)
		return err
	}

	state, err := r.loadSyncState(ctx)
	if err != nil {
		info.Error = err.Error()
		r.lastRun.Store(info)
		return err
	}

	var firstErr error
	for _, lang := range r.opts.Languages {
		pass := newLanguagePass(r, lang, state, logger)
		err := pass.run(ctx)

		// Sitemap nodes are only touched when no page changes occurred
		// for the language, so a legitimately changed sitemap never
		// survives on stale entries.
		if !pass.pagesChanged {
			if _, terr := r.store.TouchKind(ctx, node.KindSitemap, lang); terr != nil && firstErr == nil {
				firstErr = terr
			}
		}

		if err != nil {
			logger.Error("language sync failed", "language", lang, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	swept, err := r.store.Sweep(ctx)
	if err != nil && firstErr == nil {
		firstErr = err
	}

	info.Duration = time.Since(start)
	info.SweptNodes = swept
	if firstErr != nil {
		info.Error = firstErr.Error()
	}
	r.lastRun.Store(info)

	logger.Info("sync pass completed",
		"duration", info.Duration.Round(time.Millisecond),
		"swept_nodes", swept)
	return firstErr
}

// touchAllNodes marks every previously materialized node live so only
// explicitly deleted items are purged. Sitemap nodes are handled
// separately per language.
func (r *Runner) touchAllNodes(ctx context.Context, logger *slog.Logger) error {
	if err := r.store.ResetMarks(ctx); err != nil {
		return fmt.Errorf("resetting retention marks: %w", err)
	}

	kinds := []string{
		node.KindItem,
		node.KindList,
		node.KindPage,
		node.KindPageDep,
		node.KindContentDep,
		node.KindSyncState,
	}
	var total int64
	for _, kind := range kinds {
		count, err := r.store.TouchKind(ctx, kind, "")
		if err != nil {
			return fmt.Errorf("touching %s nodes: %w", kind, err)
		}
		total += count
	}
	logger.Info("touched nodes", "count", total)
	return nil
}

func (r *Runner) loadSyncState(ctx context.Context) (*model.SyncState, error) {
	n, err := r.store.Get(ctx, node.SyncStateID())
	if errors.Is(err, node.ErrNotFound) {
		return model.NewSyncState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading sync state: %w", err)
	}
	state := model.NewSyncState()
	if err := json.Unmarshal(n.Content, state); err != nil {
		return nil, fmt.Errorf("decoding sync state: %w", err)
	}
	return state, nil
}

func (r *Runner) persistSyncState(ctx context.Context, state *model.SyncState) error {
	n, err := node.Marshal(node.SyncStateID(), node.KindSyncState, "", state)
	if err != nil {
		return fmt.Errorf("encoding sync state: %w", err)
	}
	return r.store.Upsert(ctx, n)
}
