// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/graphmirror/internal/graph"
	"github.com/olegiv/graphmirror/internal/model"
	"github.com/olegiv/graphmirror/internal/node"
)

// languagePass holds the state of one language's sync: the pass-scoped
// content graph, the deferred expansion queue and the transient set of
// dependent pages discovered while expanding.
type languagePass struct {
	runner   *Runner
	lang     string
	state    *model.SyncState
	graph    *graph.ContentGraph
	deps     *graph.DependencyIndex
	expander *graph.Expander
	logger   *slog.Logger

	pending        []*model.ContentItem
	dependentPages map[int64]struct{}
	pagesChanged   bool
}

func newLanguagePass(r *Runner, lang string, state *model.SyncState, logger *slog.Logger) *languagePass {
	g := graph.NewContentGraph()
	deps := graph.NewDependencyIndex(r.store)
	return &languagePass{
		runner:         r,
		lang:           lang,
		state:          state,
		graph:          g,
		deps:           deps,
		expander:       graph.NewExpander(g, deps, r.store, logger, r.opts.MaxDepth),
		logger:         logger.With("language", lang),
		dependentPages: make(map[int64]struct{}),
	}
}

// run executes the language's strict ordering contract: item sync
// fully drains, then expansion and one-hop parent propagation, then
// page sync, then leftover dependent-page reprocessing.
func (p *languagePass) run(ctx context.Context) error {
	if err := p.syncItems(ctx); err != nil {
		return err
	}
	if err := p.expandPending(ctx); err != nil {
		return err
	}
	if err := p.syncPages(ctx); err != nil {
		return err
	}
	return p.reprocessDependentPages(ctx)
}

// syncItems drains the item change log batch by batch, persisting the
// advanced cursor after each successful batch (at-least-once: a crash
// between processing and persisting replays the batch next run).
func (p *languagePass) syncItems(ctx context.Context) error {
	ticks := p.state.ItemTicks(p.lang)
	for {
		batch, err := p.runner.source.SyncContentItems(ctx, p.lang, ticks, p.runner.opts.PageSize)
		if err != nil {
			return fmt.Errorf("fetching item batch at cursor %d: %w", ticks, err)
		}
		if len(batch.Items) == 0 {
			break
		}

		for _, item := range batch.Items {
			if item.LanguageCode == "" {
				item.LanguageCode = p.lang
			}
			if err := p.processItem(ctx, item); err != nil {
				return err
			}
		}

		ticks = batch.Cursor
		p.state.SetItemTicks(p.lang, ticks)
		if err := p.runner.persistSyncState(ctx, p.state); err != nil {
			return err
		}
		p.logger.Debug("item batch processed", "count", len(batch.Items), "cursor", ticks)
	}
	return nil
}

// processItem classifies one change-log entry: deleted items cascade,
// live items are cached and deferred for expansion after the drain.
func (p *languagePass) processItem(ctx context.Context, item *model.ContentItem) error {
	if item.IsDeleted() {
		return p.deleteItem(ctx, item)
	}
	p.graph.Put(item)
	p.pending = append(p.pending, item)
	return nil
}

// deleteItem removes both materialized forms of an item plus its
// dependency records. Every step is a no-op when already gone, so a
// replayed delete batch re-runs the cascade harmlessly.
func (p *languagePass) deleteItem(ctx context.Context, item *model.ContentItem) error {
	if err := p.runner.store.Delete(ctx, node.ItemID(item.ContentID, p.lang)); err != nil {
		return fmt.Errorf("deleting item %d: %w", item.ContentID, err)
	}
	if refName := item.ReferenceName(); refName != "" {
		if err := p.runner.store.Delete(ctx, node.ListID(refName, p.lang)); err != nil {
			return fmt.Errorf("deleting list %s: %w", refName, err)
		}
	}
	if err := p.deps.RemovePageDependency(ctx, item.ContentID, p.lang); err != nil {
		return err
	}
	if err := p.deps.RemoveContentDependency(ctx, item.ContentID, p.lang); err != nil {
		return err
	}
	p.logger.Debug("item deleted", "contentID", item.ContentID)
	return nil
}

// expandPending resolves every cached item through the expansion
// engine, collects the dependents discovered, and re-resolves each
// dependent parent one hop up the content graph.
func (p *languagePass) expandPending(ctx context.Context) error {
	parents := make(map[int64]struct{})

	for _, item := range p.pending {
		expanded, err := p.expander.ExpandItem(ctx, item)
		if err != nil {
			return fmt.Errorf("expanding item %d: %w", item.ContentID, err)
		}
		if err := p.persistItem(ctx, expanded); err != nil {
			return err
		}
		if err := p.collectDependents(ctx, item.ContentID, parents); err != nil {
			return err
		}
	}

	for parentID := range parents {
		expanded, ok, err := p.expander.ReResolveItem(ctx, parentID, p.lang)
		if err != nil {
			return fmt.Errorf("re-resolving parent %d: %w", parentID, err)
		}
		if !ok {
			// dependent parent no longer exists
			continue
		}
		if err := p.persistItem(ctx, expanded); err != nil {
			return err
		}
		pageIDs, err := p.deps.DependentPageIDs(ctx, parentID, p.lang)
		if err != nil {
			return err
		}
		for _, id := range pageIDs {
			p.dependentPages[id] = struct{}{}
		}
	}

	if len(p.pending) > 0 {
		p.logger.Info("items expanded",
			"count", len(p.pending),
			"parents_propagated", len(parents),
			"dependent_pages", len(p.dependentPages))
	}
	return nil
}

func (p *languagePass) collectDependents(ctx context.Context, contentID int64, parents map[int64]struct{}) error {
	pageIDs, err := p.deps.DependentPageIDs(ctx, contentID, p.lang)
	if err != nil {
		return err
	}
	for _, id := range pageIDs {
		p.dependentPages[id] = struct{}{}
	}

	parentIDs, err := p.deps.DependentContentIDs(ctx, contentID, p.lang)
	if err != nil {
		return err
	}
	for _, id := range parentIDs {
		if id != contentID {
			parents[id] = struct{}{}
		}
	}
	return nil
}

// persistItem writes an item's id-keyed materialization and, when it
// belongs to a named list, refreshes the list's reference-name-keyed
// materialization.
func (p *languagePass) persistItem(ctx context.Context, item *model.ContentItem) error {
	n, err := node.Marshal(node.ItemID(item.ContentID, p.lang), node.KindItem, p.lang, item)
	if err != nil {
		return fmt.Errorf("encoding item %d: %w", item.ContentID, err)
	}
	if err := p.runner.store.Upsert(ctx, n); err != nil {
		return err
	}

	refName := item.ReferenceName()
	if refName == "" {
		return nil
	}

	listID := node.ListID(refName, p.lang)
	var list []*model.ContentItem
	existing, err := p.runner.store.Get(ctx, listID)
	if err != nil && !errors.Is(err, node.ErrNotFound) {
		return err
	}
	if existing != nil {
		if err := json.Unmarshal(existing.Content, &list); err != nil {
			return fmt.Errorf("materialized list %s is malformed: %w", refName, err)
		}
	}

	replaced := false
	for i, member := range list {
		if member.ContentID == item.ContentID {
			list[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, item)
	}

	ln, err := node.Marshal(listID, node.KindList, p.lang, list)
	if err != nil {
		return fmt.Errorf("encoding list %s: %w", refName, err)
	}
	return p.runner.store.Upsert(ctx, ln)
}
