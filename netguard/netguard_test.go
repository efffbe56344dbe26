package netguard

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr error
	}{
		{"https://example.com/data.csv", nil},
		{"http://data.gov.ng/report.pdf", nil},
		{"ftp://example.com/file", ErrUnsafeScheme},
		{"file:///etc/passwd", ErrUnsafeScheme},
		{"http://127.0.0.1/admin", ErrSSRF},
		{"http://192.168.1.10/internal", ErrSSRF},
		{"http://10.0.0.5/", ErrSSRF},
		{"http://[::1]/", ErrSSRF},
		{"http://169.254.169.254/latest/meta-data", ErrSSRF},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if tt.wantErr == nil {
			if err != nil {
				t.Errorf("ValidateURL(%q): unexpected error %v", tt.url, err)
			}
			continue
		}
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateURL(%q) = %v, want %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestValidateURL_NoHost(t *testing.T) {
	if err := ValidateURL("http://"); err == nil {
		t.Fatal("expected error for URL with no host")
	}
}

func TestLimitedReadAll(t *testing.T) {
	data, err := LimitedReadAll(strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("got %q", data)
	}
}

func TestLimitedReadAll_Exceeds(t *testing.T) {
	big := bytes.Repeat([]byte("x"), 100)
	if _, err := LimitedReadAll(bytes.NewReader(big), 50); err == nil {
		t.Fatal("expected error for oversized body")
	}
}
