// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/graphmirror/internal/model"
	"github.com/olegiv/graphmirror/internal/node"
)

// DefaultMaxDepth is the expansion budget when none is configured.
const DefaultMaxDepth = 3

// Expander resolves link descriptors inside items and pages into
// embedded subtrees, recording dependency edges as a side effect.
// Cycle safety comes from a visited set keyed by (contentID, language)
// threaded through the recursion: a target already on the current path
// is left as a raw descriptor.
type Expander struct {
	graph    *ContentGraph
	deps     *DependencyIndex
	store    node.Store
	logger   *slog.Logger
	maxDepth int
}

// NewExpander creates an expansion engine over the pass cache, the
// dependency index and the node store fallback.
func NewExpander(g *ContentGraph, deps *DependencyIndex, store node.Store, logger *slog.Logger, maxDepth int) *Expander {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{graph: g, deps: deps, store: store, logger: logger, maxDepth: maxDepth}
}

type visitKey struct {
	contentID    int64
	languageCode string
}

type visitSet map[visitKey]struct{}

// ExpandItem expands a freshly synced item's field links to the
// configured depth. The input is not mutated.
func (e *Expander) ExpandItem(ctx context.Context, item *model.ContentItem) (*model.ContentItem, error) {
	return e.expand(ctx, item.Clone(), -1, 0, e.maxDepth, make(visitSet))
}

// ReResolveItem re-expands an item one level from the pass cache or
// its last materialized form, so that updates to its children
// propagate one hop up the content graph. The second return is false
// when the item exists nowhere.
func (e *Expander) ReResolveItem(ctx context.Context, contentID int64, languageCode string) (*model.ContentItem, bool, error) {
	item, cached := e.graph.GetByID(contentID, languageCode)
	if !cached {
		stored, err := e.materialized(ctx, contentID, languageCode)
		if err != nil {
			return nil, false, err
		}
		if stored == nil {
			return nil, false, nil
		}
		item = stored
	}

	expanded, err := e.expand(ctx, item.Clone(), -1, 0, 1, make(visitSet))
	if err != nil {
		return nil, false, err
	}
	return expanded, true, nil
}

// ExpandPage resolves every module's content item at depth zero. When
// a previous materialized version of the page exists, incoming modules
// are matched against the previous same-named zone by content item id
// and matches keep the previous, already-deeply-resolved module, so a
// rebuild never regresses a subtree to a shallow stub.
func (e *Expander) ExpandPage(ctx context.Context, page, prev *model.Page) (*model.Page, error) {
	out := page.Clone()

	if prev != nil {
		for zoneName, zone := range out.Zones {
			prevZone, ok := prev.Zones[zoneName]
			if !ok {
				continue
			}
			for i, mod := range zone {
				if match := findModule(prevZone, mod.ItemContentID()); match != nil {
					zone[i] = &model.Module{Module: match.Module, Item: match.Item.Clone()}
				}
			}
		}
	}

	for _, zone := range out.Zones {
		for _, mod := range zone {
			contentID := mod.ItemContentID()
			if contentID <= 0 {
				continue
			}
			item, ok, err := e.resolve(ctx, contentID, page.LanguageCode, page.PageID, -1, 0, e.maxDepth, false, make(visitSet))
			if err != nil {
				return nil, err
			}
			if ok {
				mod.Item = item
			}
		}
	}
	return out, nil
}

// expand walks an item's fields, replacing link descriptors with
// resolved subtrees. The item is mutated in place and returned. Beneath
// any linked item only one further level of expansion is attempted,
// regardless of the outer depth budget.
func (e *Expander) expand(ctx context.Context, item *model.ContentItem, pageID int64, depth, maxDepth int, visited visitSet) (*model.ContentItem, error) {
	if maxDepth <= 0 {
		maxDepth = e.maxDepth
	}
	if depth >= maxDepth {
		return item, nil
	}

	key := visitKey{item.ContentID, item.LanguageCode}
	if _, onPath := visited[key]; onPath {
		return item, nil
	}
	visited[key] = struct{}{}
	defer delete(visited, key)

	lang := item.LanguageCode
	newDepth := depth + 1

	for name, fv := range item.Fields {
		switch fv.Kind {
		case model.FieldSingleLink:
			if fv.ContentID <= 0 {
				continue
			}
			child, ok, err := e.resolve(ctx, fv.ContentID, lang, pageID, item.ContentID, newDepth, 1, fv.Item != nil, visited)
			if err != nil {
				return nil, err
			}
			if ok {
				fv.Item = child
			} else if fv.Item == nil {
				e.logger.Debug("link target unresolved, keeping raw descriptor",
					"field", name, "contentID", fv.ContentID, "language", lang)
			}

		case model.FieldMultiLink:
			resolved := make([]*model.ContentItem, 0, len(fv.SortIDs))
			for _, targetID := range fv.SortIDs {
				if targetID <= 0 {
					continue
				}
				existing := findItem(fv.Items, targetID)
				child, ok, err := e.resolve(ctx, targetID, lang, pageID, item.ContentID, newDepth, 1, existing != nil, visited)
				if err != nil {
					return nil, err
				}
				switch {
				case ok:
					resolved = append(resolved, child)
				case existing != nil:
					// stale-but-present beats missing
					resolved = append(resolved, existing)
				}
			}
			fv.Items = resolved

		case model.FieldNamedListLink:
			list, _ := e.graph.GetByRefName(fv.ReferenceName, lang)
			existing := fv.Items
			fresh := make([]*model.ContentItem, 0, len(list))
			for _, listItem := range list {
				if err := e.deps.RecordPageDependency(ctx, pageID, listItem.ContentID, lang); err != nil {
					return nil, err
				}
				if err := e.deps.RecordContentDependency(ctx, item.ContentID, listItem.ContentID, lang); err != nil {
					return nil, err
				}
				expanded, err := e.expand(ctx, listItem.Clone(), pageID, newDepth, 1, visited)
				if err != nil {
					return nil, err
				}
				fresh = append(fresh, expanded)
			}
			// additive union: fresh items first, stale survivors appended
			for _, old := range existing {
				if findItem(fresh, old.ContentID) == nil {
					fresh = append(fresh, old)
				}
			}
			fv.Items = fresh
		}
	}
	return item, nil
}

// resolve looks a target up in the pass cache, falling back to the
// node store when the caller holds no embedded copy. Every successful
// resolution records a page edge and a content edge, even when the
// target is not deepened further. The second return is false when the
// target cannot be resolved and the caller should keep what it has.
func (e *Expander) resolve(ctx context.Context, contentID int64, languageCode string, pageID, parentContentID int64, depth, maxDepth int, linkedItemExists bool, visited visitSet) (*model.ContentItem, bool, error) {
	if _, onPath := visited[visitKey{contentID, languageCode}]; onPath {
		return nil, false, nil
	}

	item, cached := e.graph.GetByID(contentID, languageCode)
	fromStore := false
	if !cached {
		if linkedItemExists {
			// the caller already holds an embedded copy and keeps it
			return nil, false, nil
		}
		stored, err := e.materialized(ctx, contentID, languageCode)
		if err != nil {
			return nil, false, err
		}
		if stored == nil {
			return nil, false, nil
		}
		item = stored
		fromStore = true
	}

	copied := item.Clone()

	if err := e.deps.RecordPageDependency(ctx, pageID, contentID, languageCode); err != nil {
		return nil, false, err
	}
	if err := e.deps.RecordContentDependency(ctx, parentContentID, contentID, languageCode); err != nil {
		return nil, false, err
	}

	if fromStore {
		// Already expanded on a previous pass; return as-is.
		return copied, true, nil
	}

	expanded, err := e.expand(ctx, copied, pageID, depth, maxDepth, visited)
	if err != nil {
		return nil, false, err
	}
	return expanded, true, nil
}

// materialized fetches an item's persisted form, nil when absent.
// Shape surprises fail loudly rather than corrupting the graph.
func (e *Expander) materialized(ctx context.Context, contentID int64, languageCode string) (*model.ContentItem, error) {
	n, err := e.store.Get(ctx, node.ItemID(contentID, languageCode))
	if errors.Is(err, node.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item := &model.ContentItem{}
	if err := json.Unmarshal(n.Content, item); err != nil {
		return nil, fmt.Errorf("materialized item %d (%s) is malformed: %w", contentID, languageCode, err)
	}
	return item, nil
}

func findItem(items []*model.ContentItem, contentID int64) *model.ContentItem {
	for _, it := range items {
		if it.ContentID == contentID {
			return it
		}
	}
	return nil
}

func findModule(zone []*model.Module, contentID int64) *model.Module {
	if contentID <= 0 {
		return nil
	}
	for _, m := range zone {
		if m.ItemContentID() == contentID {
			return m
		}
	}
	return nil
}
