// CLAUDE:SUMMARY Main agent orchestrator: cache check, search fan-out, bounded per-candidate pipeline, catalog insert.
// Package agent orchestrates the dataset discovery pipeline: search for
// candidates, download and excerpt each one, classify with an LLM, and
// persist the results in a catalog gateway.
//
// The pipeline degrades rather than fails: a candidate that cannot be
// fetched, extracted, or classified is dropped (or falls back) without
// affecting its siblings, and a run returns whatever survived.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/idrismusa4/afridata/agent/internal/classify"
	"github.com/idrismusa4/afridata/agent/internal/extract"
	"github.com/idrismusa4/afridata/agent/internal/fetch"
	"github.com/idrismusa4/afridata/agent/internal/search"
)

// Gateway persists and queries the dataset catalog. Implemented by the
// SQLite store and the Supabase client.
type Gateway interface {
	Insert(ctx context.Context, d *Dataset) error
	Query(ctx context.Context, query string, limit int) ([]*Dataset, error)
	ListRecent(ctx context.Context, limit int) ([]*Dataset, error)
}

// Searcher discovers candidates for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Fetcher downloads a candidate payload.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// Classifier produces a metadata record for a candidate.
type Classifier interface {
	Classify(ctx context.Context, in classify.Input) classify.Record
}

// Service is the main agent orchestrator.
type Service struct {
	gateway    Gateway
	searcher   Searcher
	fetcher    Fetcher
	classifier Classifier
	logger     *slog.Logger
	config     *Config
}

// New creates an agent Service. ctx is used for LLM client construction.
func New(ctx context.Context, cfg *Config, gateway Gateway, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = defaultConfig()
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	if gateway == nil {
		return nil, fmt.Errorf("agent: gateway required")
	}

	svc := &Service{
		gateway:  gateway,
		searcher: search.New(cfg.Search),
		fetcher:  fetch.New(cfg.Fetch),
		logger:   logger,
		config:   cfg,
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.classifier == nil {
		var gen classify.Generator = unavailableModel{}
		if cfg.GeminiAPIKey != "" {
			model, err := classify.NewModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return nil, fmt.Errorf("agent: create classifier: %w", err)
			}
			gen = model
		} else {
			logger.Warn("agent: no Gemini API key, classification will use fallback records")
		}
		svc.classifier = classify.New(gen, logger)
	}

	return svc, nil
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithSearcher overrides the search broker. Use in tests.
func WithSearcher(s Searcher) ServiceOption {
	return func(svc *Service) { svc.searcher = s }
}

// WithFetcher overrides the downloader. Use in tests.
func WithFetcher(f Fetcher) ServiceOption {
	return func(svc *Service) { svc.fetcher = f }
}

// WithClassifier overrides the classifier. Use in tests.
func WithClassifier(c Classifier) ServiceOption {
	return func(svc *Service) { svc.classifier = c }
}

// unavailableModel always errors, so classify.Classify falls back.
type unavailableModel struct{}

func (unavailableModel) Generate(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("no LLM configured")
}

// RunQuery executes the full discovery pipeline for a user query.
//
// The catalog cache is checked first: if it already holds matches, they are
// returned without searching. Otherwise candidates are discovered, then
// processed concurrently (bounded by Config.Concurrency). Per-candidate
// failures are logged and dropped; the run returns every record that
// survived, in candidate order.
func (svc *Service) RunQuery(ctx context.Context, query string) ([]*Dataset, error) {
	if query == "" {
		return nil, ErrNoQuery
	}
	log := svc.logger.With("query", query)

	// Cache short-circuit.
	cached, err := svc.gateway.Query(ctx, query, svc.config.Search.MaxResults)
	if err != nil {
		log.Warn("cache query failed, continuing with live search", "error", err)
	} else if len(cached) > 0 {
		log.Info("cache hit", "count", len(cached))
		return cached, nil
	}

	return svc.Run(ctx, query)
}

// Run executes discovery for a query, bypassing the catalog cache.
func (svc *Service) Run(ctx context.Context, query string) ([]*Dataset, error) {
	if query == "" {
		return nil, ErrNoQuery
	}
	log := svc.logger.With("query", query)

	candidates, err := svc.searcher.Search(ctx, query)
	if errors.Is(err, search.ErrNoAPIKey) {
		// Degraded mode: no discovery possible, cached data still serves.
		log.Warn("search unavailable, returning no candidates", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	if len(candidates) == 0 {
		log.Info("no candidates found")
		return nil, nil
	}

	// Bounded fan-out; results keep candidate order via indexed slots.
	slots := make([]*Dataset, len(candidates))
	sem := make(chan struct{}, svc.config.Concurrency)
	var wg sync.WaitGroup

	for i, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, cand search.Result) {
			defer wg.Done()
			defer func() { <-sem }()
			slots[i] = svc.processCandidate(ctx, cand)
		}(i, cand)
	}
	wg.Wait()

	var results []*Dataset
	for _, d := range slots {
		if d != nil {
			results = append(results, d)
		}
	}
	log.Info("run complete", "candidates", len(candidates), "datasets", len(results))
	return results, ctx.Err()
}

// processCandidate runs one candidate through detect, fetch, extract, and
// classify. Returns nil when the candidate is dropped.
func (svc *Service) processCandidate(ctx context.Context, cand search.Result) *Dataset {
	log := svc.logger.With("url", cand.URL)

	format := extract.Detect(cand.URL)
	if format == extract.FormatUnknown {
		log.Debug("dropping candidate with unknown format")
		return nil
	}

	res, err := svc.fetcher.Fetch(ctx, cand.URL)
	if err != nil {
		log.Warn("fetch failed, dropping candidate", "error", err)
		return nil
	}

	excerpt, err := extract.Extract(res.Body, format)
	if err != nil {
		log.Warn("extraction failed, dropping candidate", "format", format, "error", err)
		return nil
	}

	rec := svc.classifier.Classify(ctx, classify.Input{
		Title:   cand.Title,
		URL:     cand.URL,
		Format:  string(format),
		Excerpt: excerpt.Text,
	})

	d := &Dataset{
		Title:       rec.Title,
		Summary:     rec.Summary,
		Description: rec.Description,
		Tags:        rec.Tags,
		Country:     rec.Country,
		AIScore:     rec.AIScore,
		FileType:    rec.FileType,
		SourceURL:   cand.URL,
	}
	applyDefaults(d)

	// Insert failure (e.g. already catalogued) does not drop the result.
	if err := svc.gateway.Insert(ctx, d); err != nil {
		log.Warn("catalog insert failed", "error", err)
	}
	return d
}

// Search queries the catalog without triggering discovery.
func (svc *Service) Search(ctx context.Context, query string, limit int) ([]*Dataset, error) {
	if query == "" {
		return nil, ErrNoQuery
	}
	return svc.gateway.Query(ctx, query, limit)
}

// ListRecent returns the newest catalog records.
func (svc *Service) ListRecent(ctx context.Context, limit int) ([]*Dataset, error) {
	return svc.gateway.ListRecent(ctx, limit)
}
