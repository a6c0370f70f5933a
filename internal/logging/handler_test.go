// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/olegiv/graphmirror/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func testLogger(t *testing.T) (*slog.Logger, *sql.DB) {
	t.Helper()

	db := testDB(t)
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewEventLogHandler(inner, db)), db
}

func recentEvents(t *testing.T, db *sql.DB) []store.Event {
	t.Helper()

	events, err := store.NewEventQueries(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	return events
}

func TestEventLogHandlerRecordsWarnAndError(t *testing.T) {
	logger, db := testLogger(t)

	logger.Warn("cursor stalled", "run_id", "run-1", "language", "en-us")
	logger.Error("sweep failed", "run_id", "run-1")

	events := recentEvents(t, db)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	// ListRecentEvents returns newest first.
	if events[0].Level != EventLevelError || events[0].Message != "sweep failed" {
		t.Errorf("event[0] = %+v, want the error", events[0])
	}
	if events[1].Level != EventLevelWarning || events[1].Message != "cursor stalled" {
		t.Errorf("event[1] = %+v, want the warning", events[1])
	}
	if events[1].RunID != "run-1" {
		t.Errorf("run_id = %q, want run-1", events[1].RunID)
	}
	if events[1].Metadata != `{"language":"en-us"}` {
		t.Errorf("metadata = %q", events[1].Metadata)
	}
}

func TestEventLogHandlerSkipsInfo(t *testing.T) {
	logger, db := testLogger(t)

	logger.Info("sitemap materialized", "entries", 3)
	logger.Debug("item batch processed")

	if events := recentEvents(t, db); len(events) != 0 {
		t.Errorf("events = %d, want none below warn", len(events))
	}
}

func TestExtractCategoryInference(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"sitemap fetch failed", EventCategorySitemap},
		{"page expansion failed", EventCategoryPage},
		{"item batch malformed", EventCategoryContent},
		{"sync cursor behind", EventCategorySync},
		{"node store unavailable", EventCategoryStore},
		{"something else", EventCategorySystem},
	}
	for _, tt := range tests {
		var r slog.Record
		r.Message = tt.message
		if got := extractCategory(r); got != tt.want {
			t.Errorf("extractCategory(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestEventLogHandlerExplicitCategory(t *testing.T) {
	logger, db := testLogger(t)

	logger.Warn("something odd", "category", EventCategoryStore)

	events := recentEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Category != EventCategoryStore {
		t.Errorf("category = %q, want explicit store", events[0].Category)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEscapeJSON(t *testing.T) {
	if got := escapeJSON(`a"b\c` + "\n"); got != `a\"b\\c\n` {
		t.Errorf("escapeJSON = %q", got)
	}
}
