package engine

import (
	"strconv"
	"strings"
)

// ExtractPath resolves a dotted path expression against a decoded JSON tree
// and coerces the terminal value to a string.
//
// Segments are split on ".". A segment that parses as a non-negative integer
// indexes into an array node; anything else is an object-field lookup.
// Absent fields, out-of-range indexes and type mismatches all degrade to ""
// rather than failing — absence of data is always representable as the empty
// string, so callers never see an error.
func ExtractPath(root any, path string) string {
	if path == "" {
		return ""
	}

	node := root
	for _, seg := range strings.Split(path, ".") {
		switch cur := node.(type) {
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur) {
				return ""
			}
			node = cur[idx]
		case map[string]any:
			node = cur[seg] // missing key yields nil, resolution continues
		default:
			return ""
		}
	}

	return coerceScalar(node)
}

// coerceScalar renders a terminal JSON value as text.
// Objects, arrays, nulls and missing values render as "".
func coerceScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}
