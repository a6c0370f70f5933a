// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GRAPHMIRROR_REMOTE_URL", "https://cms.example.com/api")
	t.Setenv("GRAPHMIRROR_REMOTE_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Channel != "website" {
		t.Errorf("Channel = %q, want website", cfg.Channel)
	}
	if len(cfg.Languages) != 1 || cfg.Languages[0] != "en-us" {
		t.Errorf("Languages = %v, want [en-us]", cfg.Languages)
	}
	if cfg.StoreBackend != "sqlite" || cfg.UseRedisStore() {
		t.Errorf("StoreBackend = %q, want sqlite", cfg.StoreBackend)
	}
	if cfg.PageSize != 50 || cfg.MaxDepth != 3 {
		t.Errorf("PageSize/MaxDepth = %d/%d, want 50/3", cfg.PageSize, cfg.MaxDepth)
	}
	if !cfg.IsDevelopment() {
		t.Error("default env must be development")
	}
	if cfg.ServerAddr() != "localhost:8090" {
		t.Errorf("ServerAddr = %q, want localhost:8090", cfg.ServerAddr())
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("GRAPHMIRROR_REMOTE_URL", "")
	t.Setenv("GRAPHMIRROR_REMOTE_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("expected error without remote URL and API key")
	}
}

func TestLoadNormalizesLanguages(t *testing.T) {
	setRequired(t)
	t.Setenv("GRAPHMIRROR_LANGUAGES", "EN-US, fr-CA")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Languages[0] != "en-us" || cfg.Languages[1] != "fr-ca" {
		t.Errorf("Languages = %v, want lowercased trimmed codes", cfg.Languages)
	}
}

func TestLoadRejectsBadLanguage(t *testing.T) {
	setRequired(t)
	t.Setenv("GRAPHMIRROR_LANGUAGES", "not a language")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid language code")
	}
}

func TestLoadRedisRequiresURL(t *testing.T) {
	setRequired(t)
	t.Setenv("GRAPHMIRROR_STORE_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Error("expected error for redis backend without URL")
	}

	t.Setenv("GRAPHMIRROR_REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UseRedisStore() {
		t.Error("UseRedisStore must be true for redis backend")
	}
}

func TestLoadRejectsNonPositiveLimits(t *testing.T) {
	setRequired(t)
	t.Setenv("GRAPHMIRROR_PAGE_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero page size")
	}

	t.Setenv("GRAPHMIRROR_PAGE_SIZE", "50")
	t.Setenv("GRAPHMIRROR_MAX_DEPTH", "-1")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative max depth")
	}
}
