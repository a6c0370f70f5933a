// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Event is one row of the sync event log.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	RunID     string    `json:"run_id"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateEventParams holds the fields for a new event row.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	RunID     string
	Metadata  string
	CreatedAt time.Time
}

// EventQueries provides access to the events table.
type EventQueries struct {
	db *sql.DB
}

// NewEventQueries wraps an open database.
func NewEventQueries(db *sql.DB) *EventQueries {
	return &EventQueries{db: db}
}

// CreateEvent inserts an event row.
func (q *EventQueries) CreateEvent(ctx context.Context, params CreateEventParams) (int64, error) {
	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, run_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		params.Level, params.Category, params.Message, params.RunID, params.Metadata, createdAt)
	if err != nil {
		return 0, fmt.Errorf("creating event: %w", err)
	}
	return res.LastInsertId()
}

// ListRecentEvents returns the newest events, newest first.
func (q *EventQueries) ListRecentEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, run_id, metadata, created_at
		 FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.RunID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// PruneEvents deletes events older than the cutoff.
func (q *EventQueries) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	return res.RowsAffected()
}
