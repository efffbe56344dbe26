// CLAUDE:SUMMARY Supabase PostgREST gateway — dataset insert and ilike cache query over REST.
// Package supabase implements the dataset catalog against a hosted Supabase
// project via its PostgREST interface. It covers the same operations as the
// SQLite store: insert one record, keyword-query the cache, list recent.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/idrismusa4/afridata/agent/internal/store"
)

const datasetsTable = "datasets"

// Config configures the client.
type Config struct {
	URL     string        // project URL, e.g. https://xyz.supabase.co
	Key     string        // service or anon key
	Timeout time.Duration // per-request timeout. Default: 10s.
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Client talks to a Supabase project's PostgREST endpoint.
type Client struct {
	client *http.Client
	config Config
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("supabase: URL and key required")
	}
	cfg.defaults()
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Client{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}, nil
}

// Insert persists a dataset record.
func (c *Client) Insert(ctx context.Context, d *store.Dataset) error {
	if d.CreatedAt == 0 {
		d.CreatedAt = time.Now().UnixMilli()
	}
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("supabase: marshal dataset: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.restURL(datasetsTable), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: insert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("supabase: insert http %d", resp.StatusCode)
	}
	return nil
}

// Query searches the cache for records whose title or description matches
// the query (case-insensitive substring via PostgREST ilike).
func (c *Client) Query(ctx context.Context, query string, limit int) ([]*store.Dataset, error) {
	if limit <= 0 {
		limit = 20
	}
	q := filterSanitize(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	pattern := "*" + q + "*"
	params := url.Values{}
	params.Set("select", "*")
	params.Set("or", fmt.Sprintf("(title.ilike.%s,description.ilike.%s)", pattern, pattern))
	params.Set("limit", fmt.Sprint(limit))

	return c.get(ctx, c.restURL(datasetsTable)+"?"+params.Encode())
}

// filterSanitize strips characters that belong to the PostgREST filter
// grammar so user input cannot break the or=() expression.
func filterSanitize(q string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '.', '"', '\\':
			return -1
		}
		return r
	}, q)
}

// ListRecent returns the newest catalog records.
func (c *Client) ListRecent(ctx context.Context, limit int) ([]*store.Dataset, error) {
	if limit <= 0 {
		limit = 50
	}
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "created_at.desc")
	params.Set("limit", fmt.Sprint(limit))

	return c.get(ctx, c.restURL(datasetsTable)+"?"+params.Encode())
}

func (c *Client) get(ctx context.Context, rawURL string) ([]*store.Dataset, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("supabase: http %d", resp.StatusCode)
	}

	var results []*store.Dataset
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("supabase: decode: %w", err)
	}
	return results, nil
}

func (c *Client) restURL(table string) string {
	return c.config.URL + "/rest/v1/" + table
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequestWithContext(ctx, method, rawURL, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, rawURL, body)
	}
	if err != nil {
		return nil, fmt.Errorf("supabase: new request: %w", err)
	}
	req.Header.Set("apikey", c.config.Key)
	req.Header.Set("Authorization", "Bearer "+c.config.Key)
	return req, nil
}
