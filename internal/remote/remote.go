// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package remote defines the contract of the remote content source and
// an HTTP client implementing it.
package remote

import (
	"context"

	"github.com/olegiv/graphmirror/internal/model"
)

// ItemBatch is one page of the item change log. A cursor equal to the
// requested one together with an empty batch signals "caught up".
type ItemBatch struct {
	Items  []*model.ContentItem `json:"items"`
	Cursor int64                `json:"cursor"`
}

// PageBatch is one page of the page change log.
type PageBatch struct {
	Items  []*model.Page `json:"items"`
	Cursor int64         `json:"cursor"`
}

// Source is the remote content API the sync engine pulls from.
// Pagination, authentication and rate limiting are the source's
// concern; the engine only follows cursors.
type Source interface {
	// SyncContentItems fetches one page of item changes at the cursor.
	SyncContentItems(ctx context.Context, languageCode string, cursor int64, pageSize int) (*ItemBatch, error)

	// SyncPageItems fetches one page of page changes at the cursor.
	SyncPageItems(ctx context.Context, languageCode string, cursor int64, pageSize int) (*PageBatch, error)

	// GetSitemap fetches the full sitemap snapshot for a channel,
	// keyed by page path.
	GetSitemap(ctx context.Context, channel, languageCode string) (map[string]*model.SitemapEntry, error)
}
