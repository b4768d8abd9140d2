package engine

import "testing"

const ddgFixture = `
<html><body>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fblog%2Fcontext&rut=abc">Go Concurrency Patterns: Context</a></h2>
  <a class="result__snippet">How to use the context package.</a>
</div>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="https://example.com/direct">Direct Link Result</a></h2>
  <div class="result__snippet">  padded snippet  </div>
</div>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="javascript:void(0)">Bad Href</a></h2>
</div>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="https://example.com/untitled"></a></h2>
</div>
</body></html>`

func TestParseWebHTML(t *testing.T) {
	results, err := parseWebHTML([]byte(ddgFixture))
	if err != nil {
		t.Fatalf("parseWebHTML: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}

	if results[0].URL != "https://go.dev/blog/context" {
		t.Errorf("redirect unwrap = %q", results[0].URL)
	}
	if results[0].Title != "Go Concurrency Patterns: Context" {
		t.Errorf("title = %q", results[0].Title)
	}
	if results[0].Content != "How to use the context package." {
		t.Errorf("content = %q", results[0].Content)
	}
	if results[0].Engine != "duckduckgo" {
		t.Errorf("engine = %q", results[0].Engine)
	}

	if results[1].URL != "https://example.com/direct" {
		t.Errorf("direct URL = %q", results[1].URL)
	}
	if results[1].Content != "padded snippet" {
		t.Errorf("snippet not trimmed: %q", results[1].Content)
	}
}

func TestDDGUnwrapURL(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"redirect wrapper", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=x", "https://example.com/page"},
		{"direct http", "https://example.com/page", "https://example.com/page"},
		{"relative junk", "/settings", ""},
		{"javascript", "javascript:void(0)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ddgUnwrapURL(tt.href); got != tt.want {
				t.Errorf("ddgUnwrapURL(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestDDGTimeframe(t *testing.T) {
	tests := []struct {
		tf   Timeframe
		want string
	}{
		{TimeframeDay, "d"},
		{TimeframeWeek, "w"},
		{TimeframeMonth, "m"},
		{TimeframeNone, ""},
		{Timeframe("year"), ""},
	}
	for _, tt := range tests {
		if got := ddgTimeframe(tt.tf); got != tt.want {
			t.Errorf("ddgTimeframe(%q) = %q, want %q", tt.tf, got, tt.want)
		}
	}
}

func TestParseTimeframe(t *testing.T) {
	if ParseTimeframe(" Week ") != TimeframeWeek {
		t.Error("expected week")
	}
	if ParseTimeframe("fortnight") != TimeframeNone {
		t.Error("unrecognized value should degrade to none")
	}
}
