// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/olegiv/graphmirror/internal/model"
	"github.com/olegiv/graphmirror/internal/node"
)

// syncPages drains the page change log with the same cursor discipline
// as items. The first non-empty batch triggers a full sitemap
// rematerialization from a fresh snapshot before any page is
// processed.
func (p *languagePass) syncPages(ctx context.Context) error {
	ticks := p.state.PageTicks(p.lang)
	for {
		batch, err := p.runner.source.SyncPageItems(ctx, p.lang, ticks, p.runner.opts.PageSize)
		if err != nil {
			return fmt.Errorf("fetching page batch at cursor %d: %w", ticks, err)
		}
		if len(batch.Items) == 0 {
			break
		}

		// pagesChanged flips only once the snapshot is fully
		// materialized; after a failed fetch the previous sitemap
		// nodes stay eligible for retention.
		if !p.pagesChanged {
			if err := p.materializeSitemap(ctx); err != nil {
				return err
			}
			p.pagesChanged = true
		}

		for _, page := range batch.Items {
			if page.LanguageCode == "" {
				page.LanguageCode = p.lang
			}
			if err := p.processPage(ctx, page); err != nil {
				return err
			}
		}

		ticks = batch.Cursor
		p.state.SetPageTicks(p.lang, ticks)
		if err := p.runner.persistSyncState(ctx, p.state); err != nil {
			return err
		}
		p.logger.Debug("page batch processed", "count", len(batch.Items), "cursor", ticks)
	}
	return nil
}

func (p *languagePass) processPage(ctx context.Context, page *model.Page) error {
	// A page appearing in the batch is naturally reprocessed; it no
	// longer needs the dependent-page pass.
	delete(p.dependentPages, page.PageID)

	if page.IsDeleted() {
		if err := p.runner.store.Delete(ctx, node.PageID(page.PageID, p.lang)); err != nil {
			return fmt.Errorf("deleting page %d: %w", page.PageID, err)
		}
		p.logger.Debug("page deleted", "pageID", page.PageID)
		return nil
	}

	prev, err := p.materializedPage(ctx, page.PageID)
	if err != nil {
		return err
	}
	expanded, err := p.expander.ExpandPage(ctx, page, prev)
	if err != nil {
		return fmt.Errorf("expanding page %d: %w", page.PageID, err)
	}
	return p.persistPage(ctx, expanded)
}

// materializeSitemap replaces the language's sitemap in full from a
// fresh snapshot fetch, never from the change batch.
func (p *languagePass) materializeSitemap(ctx context.Context) error {
	sitemap, err := p.runner.source.GetSitemap(ctx, p.runner.opts.Channel, p.lang)
	if err != nil {
		return fmt.Errorf("materializing sitemap: %w", err)
	}

	for _, entry := range sitemap {
		entry.LanguageCode = p.lang
		p.graph.PutSitemapEntry(entry)

		n, err := node.Marshal(
			node.SitemapID(entry.PageID, entry.EffectiveContentID(), p.lang),
			node.KindSitemap, p.lang, entry)
		if err != nil {
			return fmt.Errorf("encoding sitemap entry %d: %w", entry.PageID, err)
		}
		if err := p.runner.store.Upsert(ctx, n); err != nil {
			return err
		}
	}

	p.logger.Info("sitemap materialized", "entries", len(sitemap))
	return nil
}

// reprocessDependentPages rebuilds pages that content sync marked
// dependent but page sync never delivered, directly from their last
// materialized form. Pages that were deleted in the meantime are
// silently skipped.
func (p *languagePass) reprocessDependentPages(ctx context.Context) error {
	for pageID := range p.dependentPages {
		page, err := p.materializedPage(ctx, pageID)
		if err != nil {
			return err
		}
		if page == nil {
			p.logger.Debug("dependent page missing, skipping", "pageID", pageID)
			continue
		}

		expanded, err := p.expander.ExpandPage(ctx, page, nil)
		if err != nil {
			return fmt.Errorf("reprocessing page %d: %w", pageID, err)
		}
		if err := p.persistPage(ctx, expanded); err != nil {
			return err
		}
	}

	if len(p.dependentPages) > 0 {
		p.logger.Info("dependent pages reprocessed", "count", len(p.dependentPages))
	}
	return nil
}

func (p *languagePass) materializedPage(ctx context.Context, pageID int64) (*model.Page, error) {
	n, err := p.runner.store.Get(ctx, node.PageID(pageID, p.lang))
	if errors.Is(err, node.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading page %d: %w", pageID, err)
	}
	page := &model.Page{}
	if err := json.Unmarshal(n.Content, page); err != nil {
		return nil, fmt.Errorf("materialized page %d is malformed: %w", pageID, err)
	}
	return page, nil
}

func (p *languagePass) persistPage(ctx context.Context, page *model.Page) error {
	n, err := node.Marshal(node.PageID(page.PageID, p.lang), node.KindPage, p.lang, page)
	if err != nil {
		return fmt.Errorf("encoding page %d: %w", page.PageID, err)
	}
	return p.runner.store.Upsert(ctx, n)
}
