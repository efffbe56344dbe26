package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/idrismusa4/afridata/agent/internal/classify"
	"github.com/idrismusa4/afridata/agent/internal/fetch"
	"github.com/idrismusa4/afridata/agent/internal/search"
	"github.com/idrismusa4/afridata/agent/internal/store"
	"github.com/idrismusa4/afridata/dbopen"
)

type fakeSearcher struct {
	results []search.Result
	err     error
	calls   int
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]search.Result, error) {
	f.calls++
	return f.results, f.err
}

type fakeFetcher struct {
	bodies map[string][]byte // URL -> payload; missing URL means fetch failure
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetch.Result, error) {
	body, ok := f.bodies[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return &fetch.Result{Body: body, StatusCode: 200, Attempts: 1}, nil
}

type echoClassifier struct{}

func (echoClassifier) Classify(ctx context.Context, in classify.Input) classify.Record {
	return classify.Record{
		Title:    in.Title,
		Summary:  "classified",
		Tags:     []string{"test"},
		AIScore:  4.0,
		FileType: in.Format,
	}
}

func newTestService(t *testing.T, searcher Searcher, fetcher Fetcher) (*Service, Gateway) {
	t.Helper()
	gw, err := store.New(dbopen.OpenMemory(t))
	if err != nil {
		t.Fatal(err)
	}
	svc, err := New(context.Background(), nil, gw, slog.Default(),
		WithSearcher(searcher),
		WithFetcher(fetcher),
		WithClassifier(echoClassifier{}))
	if err != nil {
		t.Fatal(err)
	}
	return svc, gw
}

func TestRunQuery_PartialFailure(t *testing.T) {
	// Three candidates: a live CSV, a dead link, a live web page.
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Live CSV", URL: "https://example.com/a.csv"},
		{Title: "Dead PDF", URL: "https://example.com/dead.pdf"},
		{Title: "Portal", URL: "https://example.com/portal"},
	}}
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"https://example.com/a.csv":  []byte("region,value\nLagos,12\n"),
		"https://example.com/portal": []byte("<html><head><title>Data Portal</title></head><body><p>Open datasets for West Africa.</p></body></html>"),
	}}

	svc, _ := newTestService(t, searcher, fetcher)
	results, err := svc.RunQuery(context.Background(), "west africa data")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (dead link dropped)", len(results))
	}
	// Candidate order preserved.
	if results[0].Title != "Live CSV" || results[1].Title != "Portal" {
		t.Errorf("order = %q, %q", results[0].Title, results[1].Title)
	}
	for _, d := range results {
		if d.Author == "" || d.License == "" || d.Rating == 0 {
			t.Errorf("presentation defaults not applied: %+v", d)
		}
	}
}

func TestRunQuery_CacheHit(t *testing.T) {
	searcher := &fakeSearcher{}
	svc, gw := newTestService(t, searcher, &fakeFetcher{})

	if err := gw.Insert(context.Background(), &Dataset{
		Title:     "Sahel Rainfall Records",
		Summary:   "Monthly rainfall data.",
		SourceURL: "https://example.com/rain.csv",
	}); err != nil {
		t.Fatal(err)
	}

	results, err := svc.RunQuery(context.Background(), "rainfall")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "Sahel Rainfall Records" {
		t.Fatalf("results = %+v", results)
	}
	if searcher.calls != 0 {
		t.Errorf("search ran despite cache hit (%d calls)", searcher.calls)
	}
}

func TestRunQuery_EmptyQuery(t *testing.T) {
	svc, _ := newTestService(t, &fakeSearcher{}, &fakeFetcher{})
	if _, err := svc.RunQuery(context.Background(), ""); !errors.Is(err, ErrNoQuery) {
		t.Fatalf("err = %v, want ErrNoQuery", err)
	}
}

func TestRunQuery_UnknownFormatDropped(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Spreadsheet", URL: "ftp://example.com/data.xlsx"},
	}}
	svc, _ := newTestService(t, searcher, &fakeFetcher{})

	results, err := svc.RunQuery(context.Background(), "spreadsheets")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %d, want 0", len(results))
	}
}

func TestRunQuery_InsertFailureStillReturned(t *testing.T) {
	// Two candidates share a source URL; the second insert hits the unique
	// index but the record still comes back to the caller.
	url := "https://example.com/dup.csv"
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "First", URL: url},
		{Title: "Second", URL: url},
	}}
	fetcher := &fakeFetcher{bodies: map[string][]byte{url: []byte("a,b\n1,2\n")}}

	svc, gw := newTestService(t, searcher, fetcher)
	results, err := svc.RunQuery(context.Background(), "duplicates")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	stored, err := gw.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Errorf("stored = %d, want 1 (second insert rejected)", len(stored))
	}
}

func TestRun_BypassesCache(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Fresh CSV", URL: "https://example.com/fresh.csv"},
	}}
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"https://example.com/fresh.csv": []byte("a,b\n1,2\n"),
	}}
	svc, gw := newTestService(t, searcher, fetcher)

	// A cached match exists, but Run must ignore it.
	if err := gw.Insert(context.Background(), &Dataset{
		Title:     "Stale Fresh Data",
		SourceURL: "https://example.com/stale.csv",
	}); err != nil {
		t.Fatal(err)
	}

	results, err := svc.Run(context.Background(), "fresh")
	if err != nil {
		t.Fatal(err)
	}
	if searcher.calls != 1 {
		t.Errorf("search calls = %d, want 1", searcher.calls)
	}
	if len(results) != 1 || results[0].Title != "Fresh CSV" {
		t.Fatalf("results = %+v", results)
	}
}

func TestRun_NoAPIKeyDegraded(t *testing.T) {
	searcher := &fakeSearcher{err: search.ErrNoAPIKey}
	svc, _ := newTestService(t, searcher, &fakeFetcher{})

	results, err := svc.Run(context.Background(), "anything")
	if err != nil {
		t.Fatalf("missing API key should degrade, not error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %d, want 0", len(results))
	}
}

func TestRunQuery_SearchError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("serpapi down")}
	svc, _ := newTestService(t, searcher, &fakeFetcher{})
	if _, err := svc.RunQuery(context.Background(), "anything"); err == nil {
		t.Fatal("expected error when search fails")
	}
}

func TestRunQuery_FallbackClassification(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Mystery File", URL: "https://example.com/m.csv"},
	}}
	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"https://example.com/m.csv": []byte("x,y\n1,2\n"),
	}}

	gw, err := store.New(dbopen.OpenMemory(t))
	if err != nil {
		t.Fatal(err)
	}
	// No classifier override and no API key: the unavailable model forces
	// the deterministic fallback path.
	svc, err := New(context.Background(), nil, gw, slog.Default(),
		WithSearcher(searcher), WithFetcher(fetcher))
	if err != nil {
		t.Fatal(err)
	}

	results, err := svc.RunQuery(context.Background(), "mystery")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	d := results[0]
	if d.Title != "Mystery File" {
		t.Errorf("Title = %q", d.Title)
	}
	if len(d.Tags) != 1 || d.Tags[0] != "Unknown" {
		t.Errorf("Tags = %v, want [Unknown]", d.Tags)
	}
	if d.AIScore != 3.0 {
		t.Errorf("AIScore = %v, want 3.0", d.AIScore)
	}
}

func TestRunQuery_ManyCandidatesBounded(t *testing.T) {
	var cands []search.Result
	bodies := make(map[string][]byte)
	for i := 0; i < 20; i++ {
		u := fmt.Sprintf("https://example.com/%d.csv", i)
		cands = append(cands, search.Result{Title: fmt.Sprintf("ds %d", i), URL: u})
		if i%2 == 0 {
			bodies[u] = []byte("a,b\n1,2\n")
		}
	}
	svc, _ := newTestService(t, &fakeSearcher{results: cands}, &fakeFetcher{bodies: bodies})

	results, err := svc.RunQuery(context.Background(), "many")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 10 {
		t.Fatalf("results = %d, want 10 survivors", len(results))
	}
}
