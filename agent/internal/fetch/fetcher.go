// CLAUDE:SUMMARY Retrying HTTP downloader with UA rotation, browser headers, backoff, and SSRF checks.
// Package fetch downloads candidate dataset files over HTTP.
//
// Public dataset hosts are unevenly behaved: some block default Go clients,
// some 403 intermittently, some hang. The fetcher retries with a rotating
// browser User-Agent pool and linear backoff, validates every URL (and every
// redirect hop) against SSRF, and caps response bodies.
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/idrismusa4/afridata/netguard"
)

// userAgents is the rotation pool. The attempt number selects the entry, so
// a host that rejects one identity sees a different one on retry.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// Result contains the outcome of a successful download.
type Result struct {
	Body       []byte
	StatusCode int
	Hash       string // SHA-256 of body
	Attempts   int    // attempts consumed, including the successful one
}

// Config configures the fetcher.
type Config struct {
	Timeout  time.Duration // per-attempt HTTP timeout. Default: 15s.
	MaxBytes int64         // max response body size. Default: netguard.MaxResponseBody.
	Attempts int           // total attempts per URL. Default: 3.
	// Backoff is the base delay between attempts; attempt n waits n*Backoff.
	// Default: 2s.
	Backoff time.Duration
	// URLValidator validates URLs before fetch and on every redirect hop.
	// Default: netguard.ValidateURL.
	URLValidator func(string) error
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = netguard.MaxResponseBody
	}
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 2 * time.Second
	}
	if c.URLValidator == nil {
		c.URLValidator = netguard.ValidateURL
	}
}

// Fetcher performs retrying HTTP downloads with SSRF protection.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher with SSRF protection on redirects.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	validate := cfg.URLValidator
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked (SSRF): %w", err)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Fetch downloads url, retrying transient failures. Every failure mode comes
// back as an error; Fetch never panics on malformed input or dead hosts.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	if err := f.config.URLValidator(url); err != nil {
		return nil, fmt.Errorf("URL blocked (SSRF): %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= f.config.Attempts; attempt++ {
		if attempt > 1 {
			// Linear backoff scaled by attempt number.
			delay := time.Duration(attempt-1) * f.config.Backoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		res, err := f.fetchOnce(ctx, url, attempt)
		if err == nil {
			res.Attempts = attempt
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, f.config.Attempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, attempt int) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	setBrowserHeaders(req, attempt)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := netguard.LimitedReadAll(resp.Body, f.config.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	h := sha256.Sum256(body)
	return &Result{
		Body:       body,
		StatusCode: resp.StatusCode,
		Hash:       fmt.Sprintf("%x", h),
	}, nil
}

// setBrowserHeaders makes the request look like an ordinary browser visit.
// The User-Agent rotates with the attempt number.
func setBrowserHeaders(req *http.Request, attempt int) {
	req.Header.Set("User-Agent", userAgents[(attempt-1)%len(userAgents)])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
