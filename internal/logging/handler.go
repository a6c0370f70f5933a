// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a custom slog handler that mirrors WARN and
// above into the sync event log for post-run inspection.
package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/olegiv/graphmirror/internal/store"
)

// Event levels and categories recorded by the handler.
const (
	EventLevelError   = "error"
	EventLevelWarning = "warning"
	EventLevelInfo    = "info"

	EventCategorySync    = "sync"
	EventCategoryContent = "content"
	EventCategoryPage    = "page"
	EventCategorySitemap = "sitemap"
	EventCategoryStore   = "store"
	EventCategorySystem  = "system"
)

// EventLogHandler is a slog.Handler that wraps another handler and also
// writes WARN and ERROR level logs to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.EventQueries
	level   slog.Level
}

// NewEventLogHandler creates a handler that forwards to inner and
// records WARN+ into the event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.NewEventQueries(db),
		level:   slog.LevelWarn,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
	}
}

func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	level := EventLevelInfo
	switch {
	case r.Level >= slog.LevelError:
		level = EventLevelError
	case r.Level >= slog.LevelWarn:
		level = EventLevelWarning
	}

	// Background context so the event lands even when the run's
	// context was cancelled.
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:    level,
		Category: extractCategory(r),
		Message:  r.Message,
		RunID:    extractAttr(r, "run_id"),
		Metadata: extractMetadata(r),
	})
}

// extractCategory looks for a "category" attribute or infers one from
// the message.
func extractCategory(r slog.Record) string {
	if category := extractAttr(r, "category"); category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "sitemap"):
		return EventCategorySitemap
	case strings.Contains(msg, "page"):
		return EventCategoryPage
	case strings.Contains(msg, "item") || strings.Contains(msg, "content"):
		return EventCategoryContent
	case strings.Contains(msg, "sync") || strings.Contains(msg, "cursor") || strings.Contains(msg, "batch"):
		return EventCategorySync
	case strings.Contains(msg, "node") || strings.Contains(msg, "store") || strings.Contains(msg, "sweep"):
		return EventCategoryStore
	default:
		return EventCategorySystem
	}
}

func extractAttr(r slog.Record, key string) string {
	var val string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val = a.Value.String()
			return false
		}
		return true
	})
	return val
}

// extractMetadata collects all log attributes into a JSON string.
func extractMetadata(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}

	var sb strings.Builder
	sb.WriteString("{")
	first := true

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" || a.Key == "run_id" {
			return true // already extracted
		}
		if !first {
			sb.WriteString(",")
		}
		first = false
		sb.WriteString(`"`)
		sb.WriteString(escapeJSON(a.Key))
		sb.WriteString(`":"`)
		sb.WriteString(escapeJSON(a.Value.String()))
		sb.WriteString(`"`)
		return true
	})

	sb.WriteString("}")
	return sb.String()
}

// escapeJSON escapes special characters in a string for JSON.
func escapeJSON(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ParseLevel maps a config log level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
