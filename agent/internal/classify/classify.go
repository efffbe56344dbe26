// CLAUDE:SUMMARY LLM dataset classifier — Gemini via langchaingo, balanced-brace JSON recovery, never-fail fallback.
// Package classify turns an extracted excerpt into structured dataset
// metadata using an LLM.
//
// The classifier is the last stage that can lose a candidate, so it never
// returns an error: any model failure, timeout, or unparseable response
// degrades to a deterministic fallback record built from the candidate
// itself.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// DefaultModel is the Gemini model used for classification.
const DefaultModel = "gemini-2.0-flash"

// defaultTimeout bounds a single classification call.
const defaultTimeout = 30 * time.Second

// Generator produces text from a prompt. Satisfied by Model; faked in tests.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Input is one candidate to classify.
type Input struct {
	Title   string
	URL     string
	Format  string
	Excerpt string
}

// Record is the structured metadata the classifier produces.
type Record struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Country     string   `json:"country"`
	AIScore     float64  `json:"ai_score"`
	FileType    string   `json:"file_type"`
}

// Model wraps a langchaingo Gemini model.
type Model struct {
	llm llms.Model
}

// NewModel creates the Gemini-backed Generator. modelName defaults to
// DefaultModel when empty.
func NewModel(ctx context.Context, apiKey, modelName string) (*Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("classify: API key required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini model: %w", err)
	}
	return &Model{llm: llm}, nil
}

// Generate generates text based on a prompt.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, m.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return response, nil
}

// Classifier classifies candidates via a Generator.
type Classifier struct {
	model   Generator
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a Classifier.
func New(model Generator, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		model:   model,
		logger:  logger.With("component", "classify"),
		timeout: defaultTimeout,
	}
}

// Classify produces a Record for in. It never returns an error: model
// failures and malformed responses degrade to Fallback(in).
func (c *Classifier) Classify(ctx context.Context, in Input) Record {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.model.Generate(ctx, buildPrompt(in))
	if err != nil {
		c.logger.Warn("model call failed, using fallback", "url", in.URL, "error", err)
		return Fallback(in)
	}

	rec, ok := parseRecord(response)
	if !ok {
		c.logger.Warn("unparseable model response, using fallback", "url", in.URL)
		return Fallback(in)
	}

	// Normalise partial responses rather than discarding them.
	if rec.Title == "" {
		rec.Title = in.Title
	}
	if len(rec.Tags) == 0 {
		rec.Tags = []string{"Unknown"}
	}
	if rec.AIScore <= 0 || rec.AIScore > 5 {
		rec.AIScore = 3.0
	}
	if rec.FileType == "" {
		rec.FileType = in.Format
	}
	return rec
}

// Fallback is the deterministic record used when classification fails.
func Fallback(in Input) Record {
	title := in.Title
	if title == "" {
		title = in.URL
	}
	return Record{
		Title:    title,
		Summary:  "Dataset discovered at " + in.URL,
		Tags:     []string{"Unknown"},
		AIScore:  3.0,
		FileType: in.Format,
	}
}

func buildPrompt(in Input) string {
	var sb strings.Builder
	sb.WriteString("You are a data librarian for an African dataset marketplace. ")
	sb.WriteString("Analyze the following discovered resource and respond with ONLY a JSON object, no prose.\n\n")
	fmt.Fprintf(&sb, "Title: %s\nURL: %s\nFormat: %s\n\nContent excerpt:\n%s\n\n", in.Title, in.URL, in.Format, in.Excerpt)
	sb.WriteString(`Respond with JSON matching this schema:
{
  "title": "cleaned up dataset title",
  "summary": "one sentence summary",
  "description": "2-3 sentence description",
  "tags": ["3-5 topic tags"],
  "country": "African country or region covered, if identifiable",
  "ai_score": 3.0,
  "file_type": "PDF|CSV|ZIP|JSON|Web"
}
ai_score is a 1-5 relevance and quality score.`)
	return sb.String()
}

// parseRecord recovers a JSON object from the model response. Models wrap
// JSON in prose or markdown fences, so it scans for the first balanced
// top-level object instead of unmarshalling the raw response.
func parseRecord(response string) (Record, bool) {
	raw, ok := extractJSONObject(response)
	if !ok {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, false
	}
	return rec, true
}

// extractJSONObject returns the first balanced {...} span in s, respecting
// string literals and escapes.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
