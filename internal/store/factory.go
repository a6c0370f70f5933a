// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"fmt"

	"github.com/olegiv/graphmirror/internal/node"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a node store backend.
type Options struct {
	// Backend is "sqlite", "redis" or "memory".
	Backend string

	// DBPath is the SQLite database path (sqlite backend).
	DBPath string

	// RedisURL is the Redis connection URL (redis backend).
	RedisURL string

	// KeyPrefix is the Redis key prefix (redis backend).
	KeyPrefix string
}

// Open creates the node store selected by opts. The SQLite backend is
// opened and migrated; callers needing the raw handle for the event
// log can type-assert to *SQLiteStore.
func Open(opts Options) (node.Store, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		db, err := NewDB(opts.DBPath)
		if err != nil {
			return nil, err
		}
		if err := Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return NewSQLiteStore(db), nil
	case BackendRedis:
		return NewRedisStoreFromURL(opts.RedisURL, opts.KeyPrefix)
	case BackendMemory:
		return node.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}
