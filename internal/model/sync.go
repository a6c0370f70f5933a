// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// LanguageTicks is the pagination cursor for one (kind, language).
type LanguageTicks struct {
	Ticks int64 `json:"ticks"`
}

// SyncState is the persisted singleton cursor record: per-language
// ticks for the item change log and the page change log.
type SyncState struct {
	Items map[string]LanguageTicks `json:"items"`
	Pages map[string]LanguageTicks `json:"pages"`
}

// NewSyncState returns an empty cursor state (all languages at zero).
func NewSyncState() *SyncState {
	return &SyncState{
		Items: make(map[string]LanguageTicks),
		Pages: make(map[string]LanguageTicks),
	}
}

// ItemTicks returns the item cursor for a language, zero if unseen.
func (s *SyncState) ItemTicks(languageCode string) int64 {
	return s.Items[languageCode].Ticks
}

// PageTicks returns the page cursor for a language, zero if unseen.
func (s *SyncState) PageTicks(languageCode string) int64 {
	return s.Pages[languageCode].Ticks
}

// SetItemTicks advances the item cursor for a language.
func (s *SyncState) SetItemTicks(languageCode string, ticks int64) {
	if s.Items == nil {
		s.Items = make(map[string]LanguageTicks)
	}
	s.Items[languageCode] = LanguageTicks{Ticks: ticks}
}

// SetPageTicks advances the page cursor for a language.
func (s *SyncState) SetPageTicks(languageCode string, ticks int64) {
	if s.Pages == nil {
		s.Pages = make(map[string]LanguageTicks)
	}
	s.Pages[languageCode] = LanguageTicks{Ticks: ticks}
}

// PageDependency records which pages must be reprocessed when the
// subject content item changes.
type PageDependency struct {
	ContentID    int64   `json:"contentID"`
	LanguageCode string  `json:"languageCode"`
	PageIDs      []int64 `json:"pageIDs"`
}

// ContentDependency records which parent items must be reprocessed
// when the subject content item changes.
type ContentDependency struct {
	ContentID        int64   `json:"contentID"`
	LanguageCode     string  `json:"languageCode"`
	ParentContentIDs []int64 `json:"parentContentIDs"`
}
