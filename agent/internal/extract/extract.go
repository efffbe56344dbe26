// Package extract turns fetched byte payloads into bounded text excerpts.
//
// Supported source formats:
//   - PDF  — full-text extraction (pure Go, cross-reference + stream decoding)
//   - CSV  — header inference plus a capped sample of data rows
//   - ZIP  — archive manifest plus bounded previews of text-like entries
//   - JSON — capped key/element previews with omission counts
//   - Web  — page title plus a bounded prefix of the body text
//
// The excerpt is the only thing downstream classification sees, so every
// extractor caps its output. A successful extraction never returns an empty
// excerpt; an unobtainable excerpt is an error for that payload.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Format identifies a candidate source type, derived from its URL alone.
type Format string

const (
	FormatPDF     Format = "PDF"
	FormatCSV     Format = "CSV"
	FormatZIP     Format = "ZIP"
	FormatJSON    Format = "JSON"
	FormatWeb     Format = "Web"
	FormatUnknown Format = "Unknown"
)

// MaxExcerptLen caps the text handed to the classifier.
const MaxExcerptLen = 4000

// Excerpt is a bounded text sample derived from a payload.
type Excerpt struct {
	Text   string
	Format Format
}

// Detect classifies a URL into a Format from its trailing extension.
// Pure function of the URL string — no content sniffing. Any http(s) URL
// without a recognized extension is FormatWeb; anything else is FormatUnknown.
func Detect(url string) Format {
	lower := strings.ToLower(url)
	// Strip query/fragment so "report.pdf?dl=1" still detects as PDF.
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return FormatPDF
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV
	case strings.HasSuffix(lower, ".zip"):
		return FormatZIP
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return FormatWeb
	default:
		return FormatUnknown
	}
}

// Extract produces an excerpt from payload according to format.
// FormatUnknown payloads are never passed here; callers drop them first.
func Extract(payload []byte, format Format) (*Excerpt, error) {
	var text string
	var err error

	switch format {
	case FormatPDF:
		text, err = extractPDF(payload)
	case FormatCSV:
		text, err = extractCSV(payload)
	case FormatZIP:
		text, err = extractZIP(payload)
	case FormatJSON:
		text, err = extractJSON(payload)
	case FormatWeb:
		text, err = extractWeb(payload)
	default:
		return nil, fmt.Errorf("extract: no extractor for format %q", format)
	}

	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", format, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("extract %s: empty excerpt", format)
	}
	return &Excerpt{Text: truncate(text, MaxExcerptLen), Format: format}, nil
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
