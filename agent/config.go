package agent

import (
	"time"

	fetchpkg "github.com/idrismusa4/afridata/agent/internal/fetch"
	searchpkg "github.com/idrismusa4/afridata/agent/internal/search"
)

// Config configures the agent service.
type Config struct {
	// Search settings (SerpAPI broker)
	Search searchpkg.Config `yaml:"search"`

	// Fetch settings (per-candidate download)
	Fetch fetchpkg.Config `yaml:"fetch"`

	// GeminiAPIKey enables LLM classification. Empty key means every
	// candidate gets the deterministic fallback record.
	GeminiAPIKey string `yaml:"gemini_api_key"`

	// GeminiModel overrides the default classification model.
	GeminiModel string `yaml:"gemini_model"`

	// Concurrency bounds the per-candidate pipeline fan-out.
	Concurrency int `yaml:"concurrency"`
}

func (c *Config) defaults() {
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = searchpkg.DefaultMaxResults
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = 10 * time.Second
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 15 * time.Second
	}
	if c.Fetch.Attempts <= 0 {
		c.Fetch.Attempts = 3
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
}

func defaultConfig() *Config {
	return &Config{
		Search: searchpkg.Config{
			MaxResults: searchpkg.DefaultMaxResults,
			Timeout:    10 * time.Second,
		},
		Fetch: fetchpkg.Config{
			Timeout:  15 * time.Second,
			Attempts: 3,
		},
		Concurrency: 4,
	}
}
