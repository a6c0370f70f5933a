// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package node

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
)

// MemoryStore is a thread-safe in-memory Store implementation. It backs
// tests and single-shot runs where persistence across processes is not
// needed.
type MemoryStore struct {
	mu     sync.RWMutex
	nodes  map[string]*memoryNode
	closed atomic.Bool
}

type memoryNode struct {
	node   *Node
	marked bool
}

// NewMemoryStore creates an empty in-memory node store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[string]*memoryNode)}
}

// Get retrieves a node by id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Node, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyNode(entry.node), nil
}

// Upsert writes a node and marks it live.
func (s *MemoryStore) Upsert(_ context.Context, n *Node) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes[n.ID] = &memoryNode{node: copyNode(n), marked: true}
	return nil
}

// Delete removes a node. Missing nodes are a no-op.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.nodes, id)
	return nil
}

// Touch marks an existing node live.
func (s *MemoryStore) Touch(_ context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.nodes[id]
	if !ok {
		return ErrNotFound
	}
	entry.marked = true
	return nil
}

// ResetMarks clears all live marks.
func (s *MemoryStore) ResetMarks(_ context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.nodes {
		entry.marked = false
	}
	return nil
}

// TouchKind marks every node of a kind live, optionally filtered by
// language.
func (s *MemoryStore) TouchKind(_ context.Context, kind, languageCode string) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, entry := range s.nodes {
		if entry.node.Kind != kind {
			continue
		}
		if languageCode != "" && entry.node.LanguageCode != languageCode {
			continue
		}
		if !entry.marked {
			entry.marked = true
			count++
		}
	}
	return count, nil
}

// Sweep removes all unmarked nodes.
func (s *MemoryStore) Sweep(_ context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, entry := range s.nodes {
		if !entry.marked {
			delete(s.nodes, id)
			count++
		}
	}
	return count, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

// Len returns the number of stored nodes.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func copyNode(n *Node) *Node {
	out := *n
	out.Content = append(json.RawMessage(nil), n.Content...)
	return &out
}
