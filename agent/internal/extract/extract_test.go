package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate_RuneBoundary(t *testing.T) {
	s := strings.Repeat("é", 5) // 2 bytes per rune
	got := truncate(s, 5)
	if got != strings.Repeat("é", 2) {
		t.Errorf("truncate = %q, want whole runes only", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if truncate("abc", 10) != "abc" {
		t.Error("string under the cap was modified")
	}
	if truncate("abcdef", 3) != "abc" {
		t.Error("ASCII truncation changed")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		url  string
		want Format
	}{
		{"https://example.com/data.csv", FormatCSV},
		{"https://example.com/report.PDF", FormatPDF},
		{"https://example.com/archive.zip", FormatZIP},
		{"https://example.com/api/records.json", FormatJSON},
		{"https://example.com/report.pdf?dl=1", FormatPDF},
		{"https://example.com/data.csv#section", FormatCSV},
		{"https://example.com/datasets/health", FormatWeb},
		{"http://data.gov.ng/", FormatWeb},
		{"ftp://example.com/data.csv", FormatCSV},
		{"not a url", FormatUnknown},
		{"", FormatUnknown},
	}

	for _, tt := range tests {
		if got := Detect(tt.url); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestDetect_Pure(t *testing.T) {
	// Same input must always yield the same format.
	for i := 0; i < 3; i++ {
		if got := Detect("https://example.com/x.zip"); got != FormatZIP {
			t.Fatalf("call %d: got %v", i, got)
		}
	}
}

func TestExtractCSV(t *testing.T) {
	payload := []byte("country,year,population\nNigeria,2020,206139589\nKenya,2020,53771296\n")
	ex, err := Extract(payload, FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ex.Text, "Columns: country, year, population") {
		t.Errorf("missing header line: %q", ex.Text)
	}
	if !strings.Contains(ex.Text, "Nigeria, 2020, 206139589") {
		t.Errorf("missing sample row: %q", ex.Text)
	}
}

func TestExtractCSV_RowCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("id,value\n")
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&sb, "%d,row-%d\n", i, i)
	}
	ex, err := Extract([]byte(sb.String()), FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	// Only the first few rows appear regardless of file size.
	if strings.Contains(ex.Text, "row-6") {
		t.Errorf("excerpt includes rows beyond the sample cap: %q", ex.Text)
	}
	if len(ex.Text) > MaxExcerptLen {
		t.Errorf("excerpt length %d exceeds cap", len(ex.Text))
	}
}

func TestExtractCSV_Empty(t *testing.T) {
	ex, err := Extract([]byte(""), FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	if ex.Text == "" {
		t.Fatal("empty excerpt for empty CSV; want placeholder text")
	}
}

func TestExtractJSON_ObjectTruncation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("{")
	for i := 0; i < 50; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "%q: %d", fmt.Sprintf("key%02d", i), i)
	}
	sb.WriteString("}")

	ex, err := Extract([]byte(sb.String()), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ex.Text, "JSON object with 50 keys") {
		t.Errorf("missing key count: %q", ex.Text)
	}
	if !strings.Contains(ex.Text, "... and 40 more keys") {
		t.Errorf("missing omission count: %q", ex.Text)
	}
}

func TestExtractJSON_Array(t *testing.T) {
	ex, err := Extract([]byte(`[1,2,3,4,5,6,7]`), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ex.Text, "JSON array with 7 elements") {
		t.Errorf("missing element count: %q", ex.Text)
	}
	if !strings.Contains(ex.Text, "... and 2 more elements") {
		t.Errorf("missing omission count: %q", ex.Text)
	}
}

func TestExtractJSON_Invalid(t *testing.T) {
	if _, err := Extract([]byte("not json at all"), FormatJSON); err == nil {
		t.Fatal("expected error for unparseable JSON")
	}
}

func TestExtractZIP(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("a.csv")
	w.Write([]byte("name,score\nAccra,9\n"))
	w, _ = zw.Create("b.bin")
	w.Write([]byte{0x00, 0x01, 0x02, 0xff})
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	ex, err := Extract(buf.Bytes(), FormatZIP)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ex.Text, "a.csv") || !strings.Contains(ex.Text, "b.bin") {
		t.Errorf("manifest incomplete: %q", ex.Text)
	}
	if !strings.Contains(ex.Text, "name,score") {
		t.Errorf("missing text entry preview: %q", ex.Text)
	}
	// Binary entry is listed but never previewed.
	if strings.Contains(ex.Text, "Preview of b.bin") {
		t.Errorf("binary entry was previewed: %q", ex.Text)
	}
}

func TestExtractZIP_Invalid(t *testing.T) {
	if _, err := Extract([]byte("this is not a zip"), FormatZIP); err == nil {
		t.Fatal("expected error for invalid archive")
	}
}

func TestExtractWeb(t *testing.T) {
	page := `<html><head><title>Ghana Census Portal</title></head>
<body><nav>skip me</nav><h1>2021 Census</h1><p>Population and housing data for Ghana.</p></body></html>`

	ex, err := Extract([]byte(page), FormatWeb)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ex.Text, "Title: Ghana Census Portal") {
		t.Errorf("missing title: %q", ex.Text)
	}
	if !strings.Contains(ex.Text, "Population and housing data") {
		t.Errorf("missing body text: %q", ex.Text)
	}
}

func TestExtractWeb_NoTitle(t *testing.T) {
	page := `<html><body><p>Bare page with no title element.</p></body></html>`
	ex, err := Extract([]byte(page), FormatWeb)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ex.Text, "Bare page") {
		t.Errorf("degraded excerpt lost body text: %q", ex.Text)
	}
}

func TestExtractWeb_BodyCap(t *testing.T) {
	long := strings.Repeat("data ", 2000)
	page := "<html><head><title>Big</title></head><body><p>" + long + "</p></body></html>"
	ex, err := Extract([]byte(page), FormatWeb)
	if err != nil {
		t.Fatal(err)
	}
	if len(ex.Text) > MaxExcerptLen {
		t.Errorf("excerpt length %d exceeds cap", len(ex.Text))
	}
}

func TestExtract_UnknownFormat(t *testing.T) {
	if _, err := Extract([]byte("x"), FormatUnknown); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestExtractPDF_Invalid(t *testing.T) {
	if _, err := Extract([]byte("%PDF-not-really"), FormatPDF); err == nil {
		t.Fatal("expected error for malformed PDF")
	}
}

func TestExtractTextFromStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n(Health survey ) Tj\n[(for Uganda)] TJ\nET\n")
	got := extractTextFromStream(stream)
	if !strings.Contains(got, "Health survey") || !strings.Contains(got, "for Uganda") {
		t.Errorf("extractTextFromStream = %q", got)
	}
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`paren \( close \)`, "paren ( close )"},
		{`oct\040space`, "oct space"},
	}
	for _, tt := range tests {
		if got := decodePDFString([]byte(tt.in)); got != tt.want {
			t.Errorf("decodePDFString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
