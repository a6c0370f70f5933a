// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// NoContentID is the sentinel for sitemap entries not bound to a
// content item (static pages).
const NoContentID = -1

// SitemapEntry is one node of a channel's sitemap snapshot, identified
// by (PageID, ContentID-or-sentinel, LanguageCode). Entries are always
// replaced in full from the latest snapshot, never patched.
type SitemapEntry struct {
	PageID       int64  `json:"pageID"`
	ContentID    int64  `json:"contentID,omitempty"`
	LanguageCode string `json:"languageCode"`
	Path         string `json:"path"`
	Title        string `json:"title,omitempty"`
	IsFolder     bool   `json:"isFolder,omitempty"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
}

// IsDynamic reports whether the entry is bound to a specific content
// item (a "dynamic" page).
func (s *SitemapEntry) IsDynamic() bool {
	return s.ContentID > 0
}

// EffectiveContentID returns the bound content id or the sentinel.
func (s *SitemapEntry) EffectiveContentID() int64 {
	if s.ContentID > 0 {
		return s.ContentID
	}
	return NoContentID
}
