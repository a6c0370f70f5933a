// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/olegiv/graphmirror/internal/node"
)

// RedisStore implements node.Store on Redis for deployments where the
// mirror is shared between processes. Nodes live under prefixed keys;
// the retention mark is a set of live node ids rebuilt each run.
type RedisStore struct {
	client *redis.Client
	prefix string
	closed atomic.Bool
}

// RedisStoreOptions configures the Redis node store.
type RedisStoreOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Prefix is prepended to all keys (e.g., "graphmirror:")
	Prefix string

	// PoolSize is the maximum number of connections (0 = use default)
	PoolSize int

	// ConnectTimeout is the timeout for establishing a connection
	ConnectTimeout time.Duration

	// ReadTimeout is the timeout for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for write operations
	WriteTimeout time.Duration
}

// DefaultRedisStoreOptions returns sensible defaults.
func DefaultRedisStoreOptions() RedisStoreOptions {
	return RedisStoreOptions{
		Prefix:         "graphmirror:",
		PoolSize:       10,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    3 * time.Second,
		WriteTimeout:   3 * time.Second,
	}
}

// NewRedisStore creates a Redis node store with the given options.
func NewRedisStore(opts RedisStoreOptions) (*RedisStore, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.PoolSize > 0 {
		redisOpts.PoolSize = opts.PoolSize
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}
	if opts.ReadTimeout > 0 {
		redisOpts.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		redisOpts.WriteTimeout = opts.WriteTimeout
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisStore{client: client, prefix: opts.Prefix}, nil
}

// NewRedisStoreFromURL creates a Redis node store from just a URL.
func NewRedisStoreFromURL(url, prefix string) (*RedisStore, error) {
	opts := DefaultRedisStoreOptions()
	opts.URL = url
	if prefix != "" {
		opts.Prefix = prefix
	}
	return NewRedisStore(opts)
}

func (s *RedisStore) nodeKey(id string) string {
	return s.prefix + "node:" + id
}

func (s *RedisStore) marksKey() string {
	return s.prefix + "marks"
}

// Get retrieves a node by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*node.Node, error) {
	if s.closed.Load() {
		return nil, node.ErrClosed
	}
	data, err := s.client.Get(ctx, s.nodeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, node.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting node %s: %w", id, err)
	}
	n := &node.Node{}
	if err := json.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("decoding node %s: %w", id, err)
	}
	return n, nil
}

// Upsert writes a node and marks it live.
func (s *RedisStore) Upsert(ctx context.Context, n *node.Node) error {
	if s.closed.Load() {
		return node.ErrClosed
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding node %s: %w", n.ID, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.nodeKey(n.ID), data, 0)
	pipe.SAdd(ctx, s.marksKey(), n.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upserting node %s: %w", n.ID, err)
	}
	return nil
}

// Delete removes a node. Deleting a missing node is a no-op.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if s.closed.Load() {
		return node.ErrClosed
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.nodeKey(id))
	pipe.SRem(ctx, s.marksKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting node %s: %w", id, err)
	}
	return nil
}

// Touch marks an existing node live.
func (s *RedisStore) Touch(ctx context.Context, id string) error {
	if s.closed.Load() {
		return node.ErrClosed
	}
	exists, err := s.client.Exists(ctx, s.nodeKey(id)).Result()
	if err != nil {
		return fmt.Errorf("touching node %s: %w", id, err)
	}
	if exists == 0 {
		return node.ErrNotFound
	}
	return s.client.SAdd(ctx, s.marksKey(), id).Err()
}

// ResetMarks clears the live-mark set ahead of a run.
func (s *RedisStore) ResetMarks(ctx context.Context) error {
	if s.closed.Load() {
		return node.ErrClosed
	}
	return s.client.Del(ctx, s.marksKey()).Err()
}

// TouchKind marks every node of a kind live by scanning the kind's id
// prefix. An empty languageCode matches all languages.
func (s *RedisStore) TouchKind(ctx context.Context, kind, languageCode string) (int64, error) {
	if s.closed.Load() {
		return 0, node.ErrClosed
	}

	// Node ids embed kind and language: {namespace}-{kind}-{lang}-{key}.
	// The cursor-state singleton has no language or key segment.
	var pattern string
	if kind == node.KindSyncState {
		pattern = s.nodeKey(node.SyncStateID())
	} else {
		pattern = s.nodeKey(node.Namespace + "-" + kind + "-")
		if languageCode != "" {
			pattern += strings.ToLower(languageCode) + "-"
		}
		pattern += "*"
	}

	var count int64
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), s.prefix+"node:")
		added, err := s.client.SAdd(ctx, s.marksKey(), id).Result()
		if err != nil {
			return count, err
		}
		count += added
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("touching kind %s: %w", kind, err)
	}
	return count, nil
}

// Sweep removes all nodes whose id is not in the live-mark set.
func (s *RedisStore) Sweep(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, node.ErrClosed
	}

	var count int64
	iter := s.client.Scan(ctx, 0, s.nodeKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id := strings.TrimPrefix(key, s.prefix+"node:")
		marked, err := s.client.SIsMember(ctx, s.marksKey(), id).Result()
		if err != nil {
			return count, err
		}
		if !marked {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return count, err
			}
			count++
		}
	}
	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("sweeping nodes: %w", err)
	}
	return count, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		return s.client.Close()
	}
	return nil
}
