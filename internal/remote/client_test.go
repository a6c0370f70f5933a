// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientOptions{BaseURL: srv.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClientSyncContentItems(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sync/items" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("APIKey") != "secret" {
			t.Error("missing APIKey header")
		}
		q := r.URL.Query()
		if q.Get("languageCode") != "en-us" || q.Get("ticks") != "150" || q.Get("pageSize") != "25" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"contentID": 1, "languageCode": "en-us",
				 "properties": {"state": 2},
				 "fields": {"link": {"contentid": 7}}}
			],
			"cursor": 200
		}`))
	})

	batch, err := c.SyncContentItems(context.Background(), "en-us", 150, 25)
	if err != nil {
		t.Fatalf("SyncContentItems: %v", err)
	}
	if batch.Cursor != 200 {
		t.Errorf("cursor = %d, want 200", batch.Cursor)
	}
	if len(batch.Items) != 1 || batch.Items[0].ContentID != 1 {
		t.Fatalf("items = %+v", batch.Items)
	}
	if batch.Items[0].Fields["link"].ContentID != 7 {
		t.Error("link descriptor not classified during decode")
	}
}

func TestClientSyncPageItems(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sync/pages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"items":[{"pageID":10,"state":2,"path":"/p"}],"cursor":42}`))
	})

	batch, err := c.SyncPageItems(context.Background(), "en-us", 0, 50)
	if err != nil {
		t.Fatalf("SyncPageItems: %v", err)
	}
	if batch.Cursor != 42 || len(batch.Items) != 1 || batch.Items[0].PageID != 10 {
		t.Errorf("batch = %+v", batch)
	}
}

func TestClientGetSitemap(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sitemap/website" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"/posts/first":{"pageID":10,"contentID":42}}`))
	})

	sitemap, err := c.GetSitemap(context.Background(), "website", "en-us")
	if err != nil {
		t.Fatalf("GetSitemap: %v", err)
	}
	entry := sitemap["/posts/first"]
	if entry == nil {
		t.Fatal("entry missing")
	}
	// Key-derived path and language are filled in.
	if entry.Path != "/posts/first" || entry.LanguageCode != "en-us" {
		t.Errorf("entry = %+v", entry)
	}
	if !entry.IsDynamic() {
		t.Error("entry bound to content must be dynamic")
	}
}

func TestClientErrorStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	if _, err := c.SyncContentItems(context.Background(), "en-us", 0, 50); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientOptions{}); err == nil {
		t.Error("expected error without base URL")
	}
}
