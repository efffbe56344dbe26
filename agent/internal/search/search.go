// CLAUDE:SUMMARY SerpAPI search broker — filetype-scoped sub-queries, dedup, capped candidate list.
// Package search discovers dataset candidates via web search.
//
// A single user query fans out into several sub-queries: one scoped to each
// downloadable filetype (pdf, csv, zip, json) plus an unscoped "dataset"
// query for portal pages. Sub-query failures are tolerated; the broker
// returns whatever the surviving sub-queries produced, deduplicated by URL
// and capped.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultMaxResults caps the candidate list handed to the pipeline.
const DefaultMaxResults = 8

// fileTypes are the extensions worth scoping sub-queries to.
var fileTypes = []string{"pdf", "csv", "zip", "json"}

// ErrNoAPIKey is returned when the broker has no search credentials.
// Callers treat this as degraded mode, not a hard failure.
var ErrNoAPIKey = errors.New("search: no API key configured")

// Result is a single discovered candidate.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Config configures the broker.
type Config struct {
	APIKey     string
	BaseURL    string        // override for tests. Default: https://serpapi.com/search.json
	MaxResults int           // cap on the combined candidate list. Default: 8.
	Timeout    time.Duration // per-sub-query HTTP timeout. Default: 10s.
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://serpapi.com/search.json"
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Broker executes fan-out searches against SerpAPI.
type Broker struct {
	client *http.Client
	config Config
}

// New creates a Broker.
func New(cfg Config) *Broker {
	cfg.defaults()
	return &Broker{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Search fans query out into filetype-scoped sub-queries plus an unscoped
// dataset query, merges the results in sub-query order, dedups by URL, and
// caps the list. Individual sub-query failures are skipped; only a total
// wipeout (or a missing API key) is an error.
func (b *Broker) Search(ctx context.Context, query string) ([]Result, error) {
	if b.config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	subQueries := make([]string, 0, len(fileTypes)+1)
	for _, ft := range fileTypes {
		subQueries = append(subQueries, fmt.Sprintf("%s filetype:%s", query, ft))
	}
	subQueries = append(subQueries, query+" dataset")

	seen := make(map[string]bool)
	var merged []Result
	var lastErr error
	failures := 0

	for _, sq := range subQueries {
		results, err := b.searchOne(ctx, sq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			lastErr = err
			continue
		}
		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			merged = append(merged, r)
			if len(merged) >= b.config.MaxResults {
				return merged, nil
			}
		}
	}

	if failures == len(subQueries) {
		return nil, fmt.Errorf("search: all %d sub-queries failed: %w", failures, lastErr)
	}
	return merged, nil
}

// redactURLError strips the request URL from transport errors before they
// propagate. The URL carries the API key in its query string.
func redactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

// serpResponse mirrors the subset of the SerpAPI payload we consume.
type serpResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

func (b *Broker) searchOne(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", b.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.config.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi http %d", resp.StatusCode)
	}

	var payload serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]Result, 0, len(payload.OrganicResults))
	for _, r := range payload.OrganicResults {
		results = append(results, Result{
			Title:   r.Title,
			URL:     r.Link,
			Snippet: r.Snippet,
		})
	}
	return results, nil
}
