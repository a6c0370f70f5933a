// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package graph holds the per-pass content graph: the working cache of
// freshly synced items, the persisted dependency index and the link
// expansion engine.
package graph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/olegiv/graphmirror/internal/model"
)

// ContentGraph is the pass-scoped working cache of freshly synced
// content. It is constructed at pass start and discarded when the
// pass ends.
type ContentGraph struct {
	mu sync.RWMutex

	// byID: languageCode -> contentID -> item
	byID map[string]map[int64]*model.ContentItem

	// byRef: languageCode -> referenceName -> ordered list items
	byRef map[string]map[string][]*model.ContentItem

	// sitemap: languageCode -> "{pageID}-{contentID}" -> entry
	sitemap map[string]map[string]*model.SitemapEntry
}

// NewContentGraph creates an empty pass cache.
func NewContentGraph() *ContentGraph {
	return &ContentGraph{
		byID:    make(map[string]map[int64]*model.ContentItem),
		byRef:   make(map[string]map[string][]*model.ContentItem),
		sitemap: make(map[string]map[string]*model.SitemapEntry),
	}
}

// Put indexes an item by (language, contentID) and, when it carries a
// reference name, appends it to that name's list. Within a pass the
// first writer wins for a given (referenceName, contentID) slot; the
// slot is never overwritten.
func (g *ContentGraph) Put(item *model.ContentItem) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lang := item.LanguageCode
	if g.byID[lang] == nil {
		g.byID[lang] = make(map[int64]*model.ContentItem)
	}
	g.byID[lang][item.ContentID] = item

	refName := item.ReferenceName()
	if refName == "" {
		return
	}
	if g.byRef[lang] == nil {
		g.byRef[lang] = make(map[string][]*model.ContentItem)
	}
	for _, existing := range g.byRef[lang][refName] {
		if existing.ContentID == item.ContentID {
			return
		}
	}
	g.byRef[lang][refName] = append(g.byRef[lang][refName], item)
}

// GetByID returns the cached item, or false when this pass has not
// synced it.
func (g *ContentGraph) GetByID(contentID int64, languageCode string) (*model.ContentItem, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	items, ok := g.byID[languageCode]
	if !ok {
		return nil, false
	}
	item, ok := items[contentID]
	return item, ok
}

// GetByRefName returns the cached list for a reference name in fetch
// order, or false when no item of that list was synced this pass.
func (g *ContentGraph) GetByRefName(refName, languageCode string) ([]*model.ContentItem, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	lists, ok := g.byRef[languageCode]
	if !ok {
		return nil, false
	}
	list, ok := lists[strings.ToLower(refName)]
	return list, ok
}

// PutSitemapEntry indexes a sitemap entry by its (page, content) key.
func (g *ContentGraph) PutSitemapEntry(entry *model.SitemapEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lang := entry.LanguageCode
	if g.sitemap[lang] == nil {
		g.sitemap[lang] = make(map[string]*model.SitemapEntry)
	}
	g.sitemap[lang][sitemapKey(entry.PageID, entry.ContentID)] = entry
}

// GetSitemapEntry returns the cached entry for (pageID, contentID) or
// false. A non-positive contentID addresses the static-page slot.
func (g *ContentGraph) GetSitemapEntry(pageID, contentID int64, languageCode string) (*model.SitemapEntry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	entries, ok := g.sitemap[languageCode]
	if !ok {
		return nil, false
	}
	entry, ok := entries[sitemapKey(pageID, contentID)]
	return entry, ok
}

// Items returns every cached item for a language, for post-drain
// expansion.
func (g *ContentGraph) Items(languageCode string) []*model.ContentItem {
	g.mu.RLock()
	defer g.mu.RUnlock()

	items := make([]*model.ContentItem, 0, len(g.byID[languageCode]))
	for _, item := range g.byID[languageCode] {
		items = append(items, item)
	}
	return items
}

func sitemapKey(pageID, contentID int64) string {
	if contentID <= 0 {
		contentID = model.NoContentID
	}
	return fmt.Sprintf("%d-%d", pageID, contentID)
}
