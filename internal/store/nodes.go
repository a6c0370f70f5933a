// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/graphmirror/internal/node"
)

// SQLiteStore implements node.Store on a SQLite nodes table. The
// touched column carries the retention mark between ResetMarks and
// Sweep.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// DB exposes the underlying handle for the event-log handler.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Get retrieves a node by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*node.Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, language_code, content, digest, updated_at
		 FROM nodes WHERE id = ?`, id)

	n := &node.Node{}
	err := row.Scan(&n.ID, &n.Kind, &n.LanguageCode, (*[]byte)(&n.Content), &n.Digest, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, node.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting node %s: %w", id, err)
	}
	return n, nil
}

// Upsert writes a node and marks it live.
func (s *SQLiteStore) Upsert(ctx context.Context, n *node.Node) error {
	updatedAt := n.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nodes (id, kind, language_code, content, digest, touched, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?)
		 ON CONFLICT (id) DO UPDATE SET
			kind = excluded.kind,
			language_code = excluded.language_code,
			content = excluded.content,
			digest = excluded.digest,
			touched = 1,
			updated_at = excluded.updated_at`,
		n.ID, n.Kind, n.LanguageCode, []byte(n.Content), n.Digest, updatedAt)
	if err != nil {
		return fmt.Errorf("upserting node %s: %w", n.ID, err)
	}
	return nil
}

// Delete removes a node. Deleting a missing node is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting node %s: %w", id, err)
	}
	return nil
}

// Touch marks an existing node live without rewriting it.
func (s *SQLiteStore) Touch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE nodes SET touched = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("touching node %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return node.ErrNotFound
	}
	return nil
}

// ResetMarks clears all live marks ahead of a run.
func (s *SQLiteStore) ResetMarks(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE nodes SET touched = 0`); err != nil {
		return fmt.Errorf("resetting marks: %w", err)
	}
	return nil
}

// TouchKind marks every node of a kind live. An empty languageCode
// matches all languages.
func (s *SQLiteStore) TouchKind(ctx context.Context, kind, languageCode string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if languageCode == "" {
		res, err = s.db.ExecContext(ctx,
			`UPDATE nodes SET touched = 1 WHERE kind = ? AND touched = 0`, kind)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE nodes SET touched = 1 WHERE kind = ? AND language_code = ? AND touched = 0`,
			kind, languageCode)
	}
	if err != nil {
		return 0, fmt.Errorf("touching kind %s: %w", kind, err)
	}
	return res.RowsAffected()
}

// Sweep removes all nodes left unmarked and returns the count.
func (s *SQLiteStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE touched = 0`)
	if err != nil {
		return 0, fmt.Errorf("sweeping nodes: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CountByKind returns the number of nodes of a kind, for health and
// stats surfaces.
func (s *SQLiteStore) CountByKind(ctx context.Context, kind string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM nodes WHERE kind = ?`, kind).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting nodes of kind %s: %w", kind, err)
	}
	return count, nil
}
