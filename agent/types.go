package agent

import (
	"errors"

	"github.com/idrismusa4/afridata/agent/internal/search"
	"github.com/idrismusa4/afridata/agent/internal/store"
)

// Dataset is a classified dataset record. Alias for the store type so HTTP
// handlers and gateways share one shape.
type Dataset = store.Dataset

// Candidate is a discovered search result before fetching.
type Candidate = search.Result

// ErrNoQuery is returned when a run is requested with an empty query.
var ErrNoQuery = errors.New("agent: empty query")

// Marketplace presentation defaults applied to freshly classified records.
// Deterministic placeholders, replaced once real usage metrics exist.
const (
	defaultAuthor     = "AfriData Agent"
	defaultAuthorType = "organization"
	defaultLicense    = "Open Data"
	defaultRating     = 4.0
)

func applyDefaults(d *Dataset) {
	if d.FileURL == "" {
		d.FileURL = d.SourceURL
	}
	if d.Author == "" {
		d.Author = defaultAuthor
	}
	if d.AuthorType == "" {
		d.AuthorType = defaultAuthorType
	}
	if d.License == "" {
		d.License = defaultLicense
	}
	if d.Rating == 0 {
		d.Rating = defaultRating
	}
}
