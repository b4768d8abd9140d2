package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewGenericAdapterValidation(t *testing.T) {
	_, err := NewGenericAdapter(ProviderConfig{Name: "nope", Kind: KindGeneric, APIURL: "https://api.example.com/search"})
	if err == nil {
		t.Fatal("expected error for template without {q}")
	}

	_, err = NewGenericAdapter(ProviderConfig{Name: "bad headers", Kind: KindGeneric, APIURL: "https://x/{q}", APIHeaders: "not json"})
	if err == nil {
		t.Fatal("expected error for malformed api_headers")
	}

	if _, err := NewGenericAdapter(ProviderConfig{Name: "ok", Kind: KindGeneric, APIURL: "https://x/?q={q}"}); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestGenericAdapterSearch(t *testing.T) {
	initTestEngine(t)

	var gotQuery, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotHeader = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte(`{
			"data": {
				"hits": [
					{"name": "First Hit", "link": "https://one", "body": {"text": "snippet one"}},
					{"name": "No URL, dropped", "link": "", "body": {"text": "ignored"}},
					{"name": "", "link": "https://two", "body": {}}
				]
			}
		}`))
	}))
	defer srv.Close()

	adapter, err := NewGenericAdapter(ProviderConfig{
		Name:        "myapi",
		Kind:        KindGeneric,
		APIURL:      srv.URL + "/?q={q}",
		APIHeaders:  `{"X-Api-Key": "secret"}`,
		ResultPath:  "data.hits",
		TitlePath:   "name",
		URLPath:     "link",
		ContentPath: "body.text",
	})
	if err != nil {
		t.Fatalf("NewGenericAdapter: %v", err)
	}

	out := adapter.Search(context.Background(), "go concurrency", TimeframeNone)

	if gotQuery != "go concurrency" {
		t.Errorf("query substitution = %q, want %q", gotQuery, "go concurrency")
	}
	if gotHeader != "secret" {
		t.Errorf("extra header = %q, want secret", gotHeader)
	}

	if len(out) != 2 {
		t.Fatalf("got %d results, want 2 (URL-less item dropped): %+v", len(out), out)
	}
	if out[0].Title != "First Hit" || out[0].URL != "https://one" || out[0].Content != "snippet one" {
		t.Errorf("first result = %+v", out[0])
	}
	if out[0].Engine != "myapi" {
		t.Errorf("engine = %q, want provider name", out[0].Engine)
	}
	if out[1].Title != "No Title" {
		t.Errorf("missing title = %q, want No Title placeholder", out[1].Title)
	}
	if out[1].Content != "" {
		t.Errorf("missing content = %q, want empty", out[1].Content)
	}
}

func TestGenericAdapterRootArray(t *testing.T) {
	initTestEngine(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"t": "Root Level", "u": "https://root"}]`))
	}))
	defer srv.Close()

	adapter, err := NewGenericAdapter(ProviderConfig{
		Name:      "rooted",
		Kind:      KindGeneric,
		APIURL:    srv.URL + "/?q={q}",
		TitlePath: "t",
		URLPath:   "u",
	})
	if err != nil {
		t.Fatalf("NewGenericAdapter: %v", err)
	}

	out := adapter.Search(context.Background(), "x", TimeframeNone)
	if len(out) != 1 || out[0].URL != "https://root" {
		t.Fatalf("root array extraction failed: %+v", out)
	}
}

func TestGenericAdapterFailSoft(t *testing.T) {
	initTestEngine(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-json body", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("<html>oops</html>")) }},
		{"wrong shape", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"data": "not an array"}`)) }},
		{"server error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			adapter, err := NewGenericAdapter(ProviderConfig{
				Name: "flaky", Kind: KindGeneric, APIURL: srv.URL + "/?q={q}",
				ResultPath: "data", TitlePath: "t", URLPath: "u",
			})
			if err != nil {
				t.Fatalf("NewGenericAdapter: %v", err)
			}
			if out := adapter.Search(context.Background(), "x", TimeframeNone); len(out) != 0 {
				t.Errorf("got %d results, want 0", len(out))
			}
		})
	}
}

func TestGenericAdapterUnreachableHost(t *testing.T) {
	Init(Config{
		HTTPClient:    &http.Client{Timeout: 200 * time.Millisecond},
		SearchTimeout: 200 * time.Millisecond,
	})

	adapter, err := NewGenericAdapter(ProviderConfig{
		Name: "dead", Kind: KindGeneric, APIURL: "http://127.0.0.1:1/?q={q}",
		TitlePath: "t", URLPath: "u",
	})
	if err != nil {
		t.Fatalf("NewGenericAdapter: %v", err)
	}
	if out := adapter.Search(context.Background(), "x", TimeframeNone); out != nil {
		t.Errorf("got %v, want nil", out)
	}
}
