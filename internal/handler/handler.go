// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler exposes the mirror's small operational HTTP surface:
// health, manual sync trigger and the remote-CMS webhook receiver.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/graphmirror/internal/syncer"
	"github.com/olegiv/graphmirror/internal/trigger"
	"github.com/olegiv/graphmirror/internal/version"
)

// Handler carries the dependencies of the HTTP surface.
type Handler struct {
	runner    *syncer.Runner
	debouncer *trigger.Debouncer
	logger    *slog.Logger
	startTime time.Time
}

// New creates the HTTP handler set.
func New(runner *syncer.Runner, debouncer *trigger.Debouncer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		runner:    runner,
		debouncer: debouncer,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Router builds the chi router for the operational surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/healthz", h.Health)
	r.Post("/sync", h.TriggerSync)
	r.Post("/webhook", h.Webhook)
	return r
}

// healthStatus is the health response body.
type healthStatus struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Uptime    string          `json:"uptime"`
	Version   string          `json:"version"`
	LastRun   *syncer.RunInfo `json:"last_run,omitempty"`
}

// Health reports process liveness and the most recent pass outcome.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   version.Get().Version,
		LastRun:   h.runner.LastRun(),
	}
	if last := status.LastRun; last != nil && last.Error != "" {
		status.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, status)
}

// TriggerSync starts a sync pass in the background. The pass outlives
// the request, so it runs on a background context.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := h.runner.RunPass(context.Background()); err != nil {
			h.logger.Error("manual sync failed", "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync started"})
}

// webhookPayload is the change notification sent by the remote CMS.
// Only presence matters; the sync protocol rediscovers the actual
// changes through its cursors.
type webhookPayload struct {
	Type         string `json:"type,omitempty"`
	LanguageCode string `json:"languageCode,omitempty"`
	ContentID    int64  `json:"contentID,omitempty"`
	PageID       int64  `json:"pageID,omitempty"`
}

// Webhook receives a change notification and schedules a debounced
// sync run.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	h.logger.Debug("change notification received",
		"type", payload.Type,
		"language", payload.LanguageCode,
		"contentID", payload.ContentID,
		"pageID", payload.PageID)
	h.debouncer.Notify()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
