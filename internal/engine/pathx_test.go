package engine

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

func TestExtractPath(t *testing.T) {
	doc := decode(t, `{
		"title": "Go Concurrency",
		"meta": {"score": 42.5, "pinned": true, "deleted": false, "none": null},
		"items": [
			{"name": "first", "tags": ["a", "b"]},
			{"name": "second"}
		]
	}`)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"top level string", "title", "Go Concurrency"},
		{"nested number", "meta.score", "42.5"},
		{"bool true", "meta.pinned", "true"},
		{"bool false", "meta.deleted", "false"},
		{"null value", "meta.none", ""},
		{"array index", "items.0.name", "first"},
		{"nested array index", "items.0.tags.1", "b"},
		{"index out of range", "items.5.name", ""},
		{"negative index", "items.-1.name", ""},
		{"non-numeric segment on array", "items.name", ""},
		{"missing field", "meta.missing", ""},
		{"lookup past missing field", "meta.missing.deeper", ""},
		{"terminal object", "meta", ""},
		{"terminal array", "items", ""},
		{"empty path", "", ""},
		{"field lookup on scalar", "title.sub", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPath(doc, tt.path); got != tt.want {
				t.Errorf("ExtractPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestExtractPathIntegerNumber(t *testing.T) {
	doc := decode(t, `{"count": 7}`)
	if got := ExtractPath(doc, "count"); got != "7" {
		t.Errorf("integer-valued number rendered as %q, want 7", got)
	}
}

func TestExtractPathNilRoot(t *testing.T) {
	if got := ExtractPath(nil, "anything"); got != "" {
		t.Errorf("nil root = %q, want empty", got)
	}
}
