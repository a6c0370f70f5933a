// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/graphmirror/internal/model"
)

const (
	defaultTimeout = 30 * time.Second

	// maxResponseSize caps response bodies at 32MB.
	maxResponseSize = 32 << 20
)

// Client is the HTTP implementation of Source.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOptions configures the HTTP client.
type ClientOptions struct {
	// BaseURL is the API root, e.g. https://cms.example.com/api/v1
	BaseURL string

	// APIKey is sent as the APIKey request header.
	APIKey string

	// Timeout for each request (default 30s).
	Timeout time.Duration

	// FetchRate limits requests per second (0 = unlimited).
	FetchRate float64
}

// NewClient creates a Source talking to a remote content API.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("remote: base URL is required")
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.FetchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.FetchRate), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

// SyncContentItems fetches one page of item changes at the cursor.
func (c *Client) SyncContentItems(ctx context.Context, languageCode string, cursor int64, pageSize int) (*ItemBatch, error) {
	batch := &ItemBatch{}
	err := c.getJSON(ctx, "/sync/items", url.Values{
		"languageCode": {languageCode},
		"ticks":        {strconv.FormatInt(cursor, 10)},
		"pageSize":     {strconv.Itoa(pageSize)},
	}, batch)
	if err != nil {
		return nil, fmt.Errorf("syncing content items (%s): %w", languageCode, err)
	}
	return batch, nil
}

// SyncPageItems fetches one page of page changes at the cursor.
func (c *Client) SyncPageItems(ctx context.Context, languageCode string, cursor int64, pageSize int) (*PageBatch, error) {
	batch := &PageBatch{}
	err := c.getJSON(ctx, "/sync/pages", url.Values{
		"languageCode": {languageCode},
		"ticks":        {strconv.FormatInt(cursor, 10)},
		"pageSize":     {strconv.Itoa(pageSize)},
	}, batch)
	if err != nil {
		return nil, fmt.Errorf("syncing pages (%s): %w", languageCode, err)
	}
	return batch, nil
}

// GetSitemap fetches the full sitemap snapshot for a channel.
func (c *Client) GetSitemap(ctx context.Context, channel, languageCode string) (map[string]*model.SitemapEntry, error) {
	sitemap := map[string]*model.SitemapEntry{}
	err := c.getJSON(ctx, "/sitemap/"+url.PathEscape(channel), url.Values{
		"languageCode": {languageCode},
	}, &sitemap)
	if err != nil {
		return nil, fmt.Errorf("fetching sitemap %s (%s): %w", channel, languageCode, err)
	}
	for path, entry := range sitemap {
		entry.LanguageCode = languageCode
		if entry.Path == "" {
			entry.Path = path
		}
	}
	return sitemap, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("APIKey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
