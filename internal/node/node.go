// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package node defines the materialized node shape and the persistence
// boundary the sync engine writes through. Node identifiers are
// deterministic strings derived from a namespace tag and the entity's
// natural key, so incremental passes address the same node across runs.
package node

import (
	"context"
	"encoding/json"
	"time"
)

// Node kinds persisted by the mirror.
const (
	KindItem       = "item"
	KindList       = "list"
	KindPage       = "page"
	KindSitemap    = "sitemap"
	KindPageDep    = "pagedep"
	KindContentDep = "contentdep"
	KindSyncState  = "syncstate"
)

// Node is one materialized record in the host store.
type Node struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	LanguageCode string          `json:"languageCode,omitempty"`
	Content      json.RawMessage `json:"content"`
	Digest       string          `json:"digest"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Store is the node persistence boundary. Get/Upsert/Delete/Touch are
// assumed atomic and durable for the duration of a sync pass.
//
// Retention follows a conservative mark phase: ResetMarks clears all
// live marks at run start, TouchKind (and every Upsert or Touch) marks
// nodes live, and Sweep removes whatever was never marked this run.
type Store interface {
	// Get returns the node or ErrNotFound.
	Get(ctx context.Context, id string) (*Node, error)

	// Upsert writes the node and marks it live.
	Upsert(ctx context.Context, n *Node) error

	// Delete removes the node. Deleting a missing node is a no-op.
	Delete(ctx context.Context, id string) error

	// Touch marks an existing node live without rewriting it.
	Touch(ctx context.Context, id string) error

	// ResetMarks clears all live marks ahead of a run.
	ResetMarks(ctx context.Context) error

	// TouchKind marks every node of a kind live. An empty languageCode
	// matches all languages. Returns the number of nodes marked.
	TouchKind(ctx context.Context, kind, languageCode string) (int64, error)

	// Sweep removes all nodes left unmarked and returns the count.
	Sweep(ctx context.Context) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}

// Error is a string-typed error for store sentinel conditions.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrNotFound indicates the node does not exist.
	ErrNotFound Error = "node not found"

	// ErrClosed indicates the store has been closed.
	ErrClosed Error = "node store closed"
)

// Marshal encodes an entity into a node's content together with its
// digest.
func Marshal(id, kind, languageCode string, v any) (*Node, error) {
	content, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Node{
		ID:           id,
		Kind:         kind,
		LanguageCode: languageCode,
		Content:      content,
		Digest:       Digest(content),
		UpdatedAt:    time.Now().UTC(),
	}, nil
}
