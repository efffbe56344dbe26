package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const (
	csvMaxParseRows  = 10 // data rows read beyond the header
	csvMaxSampleRows = 5  // data rows rendered into the excerpt
)

// extractCSV renders the header row plus a bounded sample of data rows.
// Ragged rows are tolerated; an empty file still yields a usable excerpt
// so the classifier can work from the URL and title alone.
func extractCSV(payload []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := r.Read()
	if err == io.EOF {
		return "CSV file (empty or unparseable preview)", nil
	}
	if err != nil {
		return "", fmt.Errorf("csv header: %w", err)
	}

	var rows [][]string
	for len(rows) < csvMaxParseRows {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row mid-file; keep what parsed so far.
			break
		}
		rows = append(rows, rec)
	}

	var sb strings.Builder
	sb.WriteString("Columns: ")
	sb.WriteString(strings.Join(header, ", "))
	if len(rows) > 0 {
		sb.WriteString("\nSample rows:\n")
		for i, rec := range rows {
			if i >= csvMaxSampleRows {
				break
			}
			sb.WriteString(strings.Join(rec, ", "))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}
