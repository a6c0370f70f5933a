// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/graphmirror/internal/node"
)

func TestDependencyIndexPageEdges(t *testing.T) {
	ctx := context.Background()
	d := NewDependencyIndex(node.NewMemoryStore())

	require.NoError(t, d.RecordPageDependency(ctx, 10, 42, "en-us"))
	require.NoError(t, d.RecordPageDependency(ctx, 11, 42, "en-us"))
	// Re-recording an existing edge is a no-op.
	require.NoError(t, d.RecordPageDependency(ctx, 10, 42, "en-us"))

	pages, err := d.DependentPageIDs(ctx, 42, "en-us")
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, pages)
}

func TestDependencyIndexContentEdges(t *testing.T) {
	ctx := context.Background()
	d := NewDependencyIndex(node.NewMemoryStore())

	require.NoError(t, d.RecordContentDependency(ctx, 7, 42, "en-us"))
	require.NoError(t, d.RecordContentDependency(ctx, 8, 42, "en-us"))
	require.NoError(t, d.RecordContentDependency(ctx, 7, 42, "en-us"))

	parents, err := d.DependentContentIDs(ctx, 42, "en-us")
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, parents)
}

func TestDependencyIndexGuards(t *testing.T) {
	ctx := context.Background()
	store := node.NewMemoryStore()
	d := NewDependencyIndex(store)

	// Sentinel ids for "no page" and "no parent" never create records.
	require.NoError(t, d.RecordPageDependency(ctx, -1, 42, "en-us"))
	require.NoError(t, d.RecordPageDependency(ctx, 0, 42, "en-us"))
	require.NoError(t, d.RecordContentDependency(ctx, -1, 42, "en-us"))

	assert.Equal(t, 0, store.Len())
}

func TestDependencyIndexLanguageScoping(t *testing.T) {
	ctx := context.Background()
	d := NewDependencyIndex(node.NewMemoryStore())

	require.NoError(t, d.RecordPageDependency(ctx, 10, 42, "en-us"))

	pages, err := d.DependentPageIDs(ctx, 42, "fr-ca")
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestDependencyIndexRemove(t *testing.T) {
	ctx := context.Background()
	d := NewDependencyIndex(node.NewMemoryStore())

	require.NoError(t, d.RecordPageDependency(ctx, 10, 42, "en-us"))
	require.NoError(t, d.RecordContentDependency(ctx, 7, 42, "en-us"))

	require.NoError(t, d.RemovePageDependency(ctx, 42, "en-us"))
	require.NoError(t, d.RemoveContentDependency(ctx, 42, "en-us"))

	pages, err := d.DependentPageIDs(ctx, 42, "en-us")
	require.NoError(t, err)
	assert.Empty(t, pages)

	parents, err := d.DependentContentIDs(ctx, 42, "en-us")
	require.NoError(t, err)
	assert.Empty(t, parents)

	// Removing an absent record stays quiet.
	require.NoError(t, d.RemovePageDependency(ctx, 999, "en-us"))
}
