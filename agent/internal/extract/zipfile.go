package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	zipMaxEntries      = 50  // manifest entries listed
	zipMaxPreviews     = 5   // text-like entries previewed
	zipMaxPreviewBytes = 500 // bytes previewed per entry
)

// textLikeExts are archive entries worth previewing inline.
var textLikeExts = map[string]bool{
	".txt":  true,
	".csv":  true,
	".md":   true,
	".json": true,
}

// extractZIP lists the archive manifest and previews the first text-like
// entries. Entries that fail to open are listed but not previewed.
func extractZIP(payload []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", fmt.Errorf("zip open: %w", err)
	}
	if len(zr.File) == 0 {
		return "", fmt.Errorf("empty archive")
	}

	var sb strings.Builder
	sb.WriteString("Archive contents:\n")
	for i, f := range zr.File {
		if i >= zipMaxEntries {
			fmt.Fprintf(&sb, "... and %d more entries\n", len(zr.File)-zipMaxEntries)
			break
		}
		fmt.Fprintf(&sb, "- %s (%d bytes)\n", f.Name, f.UncompressedSize64)
	}

	previewed := 0
	for _, f := range zr.File {
		if previewed >= zipMaxPreviews {
			break
		}
		if !textLikeExts[strings.ToLower(path.Ext(f.Name))] {
			continue
		}
		preview, err := readZipEntry(f, zipMaxPreviewBytes)
		if err != nil || strings.TrimSpace(preview) == "" {
			continue
		}
		fmt.Fprintf(&sb, "\nPreview of %s:\n%s\n", f.Name, strings.TrimSpace(preview))
		previewed++
	}

	return sb.String(), nil
}

func readZipEntry(f *zip.File, maxBytes int64) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
