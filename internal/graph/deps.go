// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/olegiv/graphmirror/internal/model"
	"github.com/olegiv/graphmirror/internal/node"
)

// DependencyIndex persists the blast radius of a content change: which
// pages and which parent items must be reprocessed when an item
// changes. Records only grow during a pass; they are removed whole
// when their subject item is deleted.
type DependencyIndex struct {
	store node.Store
}

// NewDependencyIndex creates an index over the given node store.
func NewDependencyIndex(store node.Store) *DependencyIndex {
	return &DependencyIndex{store: store}
}

// RecordPageDependency inserts pageID into the subject item's
// page-dependency set. A non-positive pageID is a no-op. Recording is
// idempotent: membership is checked before insert.
func (d *DependencyIndex) RecordPageDependency(ctx context.Context, pageID, contentID int64, languageCode string) error {
	if pageID < 1 {
		return nil
	}

	id := node.PageDepID(contentID, languageCode)
	rec := &model.PageDependency{ContentID: contentID, LanguageCode: languageCode}
	if err := d.load(ctx, id, rec); err != nil {
		return err
	}
	if slices.Contains(rec.PageIDs, pageID) {
		return nil
	}
	rec.PageIDs = append(rec.PageIDs, pageID)
	return d.persist(ctx, id, node.KindPageDep, languageCode, rec)
}

// RecordContentDependency inserts parentContentID into the subject
// item's content-dependency set. A non-positive parent is a no-op.
func (d *DependencyIndex) RecordContentDependency(ctx context.Context, parentContentID, contentID int64, languageCode string) error {
	if parentContentID < 1 {
		return nil
	}

	id := node.ContentDepID(contentID, languageCode)
	rec := &model.ContentDependency{ContentID: contentID, LanguageCode: languageCode}
	if err := d.load(ctx, id, rec); err != nil {
		return err
	}
	if slices.Contains(rec.ParentContentIDs, parentContentID) {
		return nil
	}
	rec.ParentContentIDs = append(rec.ParentContentIDs, parentContentID)
	return d.persist(ctx, id, node.KindContentDep, languageCode, rec)
}

// DependentPageIDs returns the pages depending on an item, empty when
// no record exists.
func (d *DependencyIndex) DependentPageIDs(ctx context.Context, contentID int64, languageCode string) ([]int64, error) {
	rec := &model.PageDependency{}
	if err := d.load(ctx, node.PageDepID(contentID, languageCode), rec); err != nil {
		return nil, err
	}
	return rec.PageIDs, nil
}

// DependentContentIDs returns the parent items depending on an item,
// empty when no record exists.
func (d *DependencyIndex) DependentContentIDs(ctx context.Context, contentID int64, languageCode string) ([]int64, error) {
	rec := &model.ContentDependency{}
	if err := d.load(ctx, node.ContentDepID(contentID, languageCode), rec); err != nil {
		return nil, err
	}
	return rec.ParentContentIDs, nil
}

// RemovePageDependency deletes the subject's page-dependency record
// outright. Used when the subject item is deleted; individual entries
// are never pruned.
func (d *DependencyIndex) RemovePageDependency(ctx context.Context, contentID int64, languageCode string) error {
	return d.store.Delete(ctx, node.PageDepID(contentID, languageCode))
}

// RemoveContentDependency deletes the subject's content-dependency
// record outright.
func (d *DependencyIndex) RemoveContentDependency(ctx context.Context, contentID int64, languageCode string) error {
	return d.store.Delete(ctx, node.ContentDepID(contentID, languageCode))
}

func (d *DependencyIndex) load(ctx context.Context, id string, rec any) error {
	n, err := d.store.Get(ctx, id)
	if errors.Is(err, node.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading dependency record %s: %w", id, err)
	}
	if err := json.Unmarshal(n.Content, rec); err != nil {
		return fmt.Errorf("decoding dependency record %s: %w", id, err)
	}
	return nil
}

func (d *DependencyIndex) persist(ctx context.Context, id, kind, languageCode string, rec any) error {
	n, err := node.Marshal(id, kind, languageCode, rec)
	if err != nil {
		return fmt.Errorf("encoding dependency record %s: %w", id, err)
	}
	return d.store.Upsert(ctx, n)
}
