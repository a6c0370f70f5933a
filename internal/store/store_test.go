// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/graphmirror/internal/node"
)

// testDB opens a migrated SQLite database in a temp directory.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSQLiteStore(testDB(t))

	n, err := node.Marshal(node.ItemID(1, "en-us"), node.KindItem, "en-us", map[string]string{"title": "hi"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := s.Upsert(ctx, n); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Get(ctx, n.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Kind != node.KindItem || got.LanguageCode != "en-us" || got.Digest != n.Digest {
		t.Errorf("got %+v, want stored node back", got)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, node.ErrNotFound) {
		t.Errorf("missing node err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewSQLiteStore(testDB(t))

	first, _ := node.Marshal(node.ItemID(1, "en-us"), node.KindItem, "en-us", 1)
	second, _ := node.Marshal(node.ItemID(1, "en-us"), node.KindItem, "en-us", 2)
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	got, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Digest != second.Digest {
		t.Error("upsert did not replace content")
	}

	count, err := s.CountByKind(ctx, node.KindItem)
	if err != nil {
		t.Fatalf("CountByKind: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSQLiteStoreTouchMissing(t *testing.T) {
	s := NewSQLiteStore(testDB(t))
	if err := s.Touch(context.Background(), "absent"); !errors.Is(err, node.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreMarkAndSweep(t *testing.T) {
	ctx := context.Background()
	s := NewSQLiteStore(testDB(t))

	live, _ := node.Marshal(node.ItemID(1, "en-us"), node.KindItem, "en-us", 1)
	stale, _ := node.Marshal(node.ItemID(2, "en-us"), node.KindItem, "en-us", 2)
	smapEN, _ := node.Marshal(node.SitemapID(1, 0, "en-us"), node.KindSitemap, "en-us", 1)
	smapFR, _ := node.Marshal(node.SitemapID(1, 0, "fr-ca"), node.KindSitemap, "fr-ca", 1)
	for _, n := range []*node.Node{live, stale, smapEN, smapFR} {
		if err := s.Upsert(ctx, n); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	if err := s.ResetMarks(ctx); err != nil {
		t.Fatalf("ResetMarks: %v", err)
	}
	if err := s.Touch(ctx, live.ID); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	count, err := s.TouchKind(ctx, node.KindSitemap, "en-us")
	if err != nil {
		t.Fatalf("TouchKind: %v", err)
	}
	if count != 1 {
		t.Errorf("TouchKind count = %d, want 1", count)
	}

	swept, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if swept != 2 {
		t.Errorf("swept = %d, want stale item and fr sitemap", swept)
	}
	if _, err := s.Get(ctx, live.ID); err != nil {
		t.Errorf("live node swept: %v", err)
	}
	if _, err := s.Get(ctx, smapEN.ID); err != nil {
		t.Errorf("touched sitemap swept: %v", err)
	}
	if _, err := s.Get(ctx, stale.ID); !errors.Is(err, node.ErrNotFound) {
		t.Error("stale node survived sweep")
	}
}

func TestSQLiteStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewSQLiteStore(testDB(t))

	n, _ := node.Marshal(node.ItemID(1, "en-us"), node.KindItem, "en-us", 1)
	s.Upsert(ctx, n)
	if err := s.Delete(ctx, n.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, n.ID); err != nil {
		t.Errorf("second Delete: %v, want nil", err)
	}
}

func TestEventQueries(t *testing.T) {
	ctx := context.Background()
	q := NewEventQueries(testDB(t))

	id, err := q.CreateEvent(ctx, CreateEventParams{
		Level:    "WARN",
		Category: "sync",
		Message:  "cursor stalled",
		RunID:    "run-1",
		Metadata: `{"language":"en-us"}`,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero event id")
	}

	events, err := q.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 || events[0].Message != "cursor stalled" {
		t.Errorf("events = %+v, want the created event", events)
	}

	pruned, err := q.PruneEvents(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PruneEvents: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
}

func TestOpenFactory(t *testing.T) {
	s, err := Open(Options{Backend: BackendMemory})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*node.MemoryStore); !ok {
		t.Errorf("backend = %T, want *node.MemoryStore", s)
	}

	sq, err := Open(Options{Backend: BackendSQLite, DBPath: filepath.Join(t.TempDir(), "f.db")})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer sq.Close()
	if _, ok := sq.(*SQLiteStore); !ok {
		t.Errorf("backend = %T, want *SQLiteStore", sq)
	}

	if _, err := Open(Options{Backend: "bogus"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
