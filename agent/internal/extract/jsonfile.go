package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	jsonMaxKeys     = 10  // top-level object keys rendered
	jsonMaxElems    = 5   // top-level array elements rendered
	jsonMaxValueLen = 120 // rendered length per value
)

// extractJSON previews a JSON payload. Objects render a bounded set of
// top-level keys with truncated values; arrays render their length and
// the first few elements. Unparseable payloads are an error.
func extractJSON(payload []byte) (string, error) {
	var root any
	if err := json.Unmarshal(payload, &root); err != nil {
		return "", fmt.Errorf("json parse: %w", err)
	}

	var sb strings.Builder
	switch v := root.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&sb, "JSON object with %d keys:\n", len(keys))
		for i, k := range keys {
			if i >= jsonMaxKeys {
				fmt.Fprintf(&sb, "... and %d more keys\n", len(keys)-jsonMaxKeys)
				break
			}
			fmt.Fprintf(&sb, "%s: %s\n", k, renderJSONValue(v[k]))
		}

	case []any:
		fmt.Fprintf(&sb, "JSON array with %d elements:\n", len(v))
		for i, e := range v {
			if i >= jsonMaxElems {
				fmt.Fprintf(&sb, "... and %d more elements\n", len(v)-jsonMaxElems)
				break
			}
			fmt.Fprintf(&sb, "- %s\n", renderJSONValue(e))
		}

	default:
		fmt.Fprintf(&sb, "JSON value: %s", renderJSONValue(v))
	}

	return sb.String(), nil
}

// renderJSONValue renders a decoded JSON value as a bounded single line.
func renderJSONValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	s := string(data)
	if len(s) > jsonMaxValueLen {
		s = s[:jsonMaxValueLen] + "..."
	}
	return s
}
