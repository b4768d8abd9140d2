package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func initTestEngine(t *testing.T) {
	t.Helper()
	Init(Config{
		HTTPClient:    &http.Client{Timeout: 2 * time.Second},
		SearchTimeout: 2 * time.Second,
	})
}

func genericProvider(name, urlTemplate string) ProviderConfig {
	return ProviderConfig{
		Name:       name,
		Kind:       KindGeneric,
		APIURL:     urlTemplate,
		ResultPath: "results",
		TitlePath:  "title",
		URLPath:    "url",
		Enabled:    true,
	}
}

func TestDedupByURL(t *testing.T) {
	in := []SearchResult{
		{Title: "first", URL: "https://a", Engine: "one"},
		{Title: "other", URL: "https://b", Engine: "one"},
		{Title: "dupe", URL: "https://a", Engine: "two"},
		{Title: "dupe again", URL: "https://a", Engine: "three"},
	}
	out := dedupByURL(in)
	if len(out) != 2 {
		t.Fatalf("got %d results, want 2", len(out))
	}
	if out[0].Engine != "one" || out[0].Title != "first" {
		t.Errorf("dedup kept %+v, want the first occurrence", out[0])
	}
	if out[1].URL != "https://b" {
		t.Errorf("second survivor = %q, want https://b", out[1].URL)
	}
}

func TestRankResults(t *testing.T) {
	in := []SearchResult{
		{Title: "Unrelated post", URL: "u1"},
		{Title: "Rust Ownership Guide", URL: "u2"},
		{Title: "another miss", URL: "u3"},
		{Title: "Understanding RUST OWNERSHIP deeply", URL: "u4"},
	}
	out := rankResults(in, "rust ownership")

	wantOrder := []string{"u2", "u4", "u1", "u3"}
	for i, want := range wantOrder {
		if out[i].URL != want {
			t.Errorf("position %d = %q, want %q (got %+v)", i, out[i].URL, want, out)
		}
	}
}

func TestRetrieveFaultIsolation(t *testing.T) {
	initTestEngine(t)

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"Rust Ownership Guide","url":"https://a","content":"..."}]}`))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer bad.Close()

	providers := []ProviderConfig{
		genericProvider("bad", bad.URL+"/?q={q}"),
		genericProvider("good", good.URL+"/?q={q}"),
	}

	out := Retrieve(context.Background(), providers, "rust ownership", TimeframeNone)
	if len(out) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(out), out)
	}
	if out[0].Title != "Rust Ownership Guide" || out[0].URL != "https://a" {
		t.Errorf("unexpected survivor: %+v", out[0])
	}
}

func TestRetrieveMergeOrderIsProviderOrder(t *testing.T) {
	initTestEngine(t)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"results":[{"title":"slow","url":"https://slow"}]}`))
	}))
	defer slow.Close()

	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"fast","url":"https://fast"}]}`))
	}))
	defer fast.Close()

	providers := []ProviderConfig{
		genericProvider("slow", slow.URL+"/?q={q}"),
		genericProvider("fast", fast.URL+"/?q={q}"),
	}

	out := Retrieve(context.Background(), providers, "zzz", TimeframeNone)
	if len(out) != 2 {
		t.Fatalf("got %d results, want 2", len(out))
	}
	if out[0].URL != "https://slow" || out[1].URL != "https://fast" {
		t.Errorf("merge order = [%s %s], want configuration order", out[0].URL, out[1].URL)
	}
}

func TestRetrieveCrossProviderDedup(t *testing.T) {
	initTestEngine(t)

	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"from first","url":"https://same"}]}`))
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"from second","url":"https://same"}]}`))
	}))
	defer second.Close()

	providers := []ProviderConfig{
		genericProvider("first", first.URL+"/?q={q}"),
		genericProvider("second", second.URL+"/?q={q}"),
	}

	out := Retrieve(context.Background(), providers, "zzz", TimeframeNone)
	if len(out) != 1 {
		t.Fatalf("got %d results, want 1", len(out))
	}
	if out[0].Title != "from first" {
		t.Errorf("survivor = %q, want the earliest-iterated provider's result", out[0].Title)
	}
}

func TestRetrieveEmptyProvidersUsesLocalDefault(t *testing.T) {
	initTestEngine(t)

	// No archive searcher configured: the synthetic default must still run
	// without panicking and yield zero results.
	out := Retrieve(context.Background(), nil, "anything", TimeframeNone)
	if len(out) != 0 {
		t.Errorf("got %d results, want 0", len(out))
	}
}

func TestDefaultProviders(t *testing.T) {
	defaults := defaultProviders()
	if len(defaults) != 1 {
		t.Fatalf("got %d defaults, want 1", len(defaults))
	}
	id, err := ResolveNativeID(defaults[0].APIURL)
	if err != nil {
		t.Fatalf("default provider does not resolve: %v", err)
	}
	if id != NativeLocalArchive {
		t.Errorf("default adapter = %q, want local archive", id)
	}
}
