package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// sseHandler writes each payload as one SSE data line and flushes.
func sseHandler(t *testing.T, payloads ...string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
			flusher.Flush()
		}
	}
}

func TestStreamOpenAICollectsDeltas(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		sseHandler(t,
			`{"choices":[{"delta":{"content":"Go "}}]}`,
			`{"choices":[{"delta":{"content":"rocks"}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			`[DONE]`,
		)(w, r)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{
		Provider: ProviderOpenAI, BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-test",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	got, err := Collect(context.Background(), c, []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got != "Go rocks" {
		t.Errorf("got %q, want %q", got, "Go rocks")
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestStreamStopsAtDone(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"choices":[{"delta":{"content":"before"}}]}`,
		`[DONE]`,
		`{"choices":[{"delta":{"content":"after"}}]}`,
	))
	defer srv.Close()

	c, _ := NewClient(ClientConfig{Provider: ProviderLMStudio, BaseURL: srv.URL, Model: "m"})
	got, err := Collect(context.Background(), c, []Message{{Role: "user", Content: "q"}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got != "before" {
		t.Errorf("got %q, want stream cut at the done sentinel", got)
	}
}

func TestStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(ClientConfig{Provider: ProviderLMStudio, BaseURL: srv.URL, Model: "m"})
	_, err := Collect(context.Background(), c, []Message{{Role: "user", Content: "q"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("error = %v", err)
	}
}

func TestStreamMidStreamError(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"choices":[{"delta":{"content":"partial"}}]}`,
		`{"error":{"message":"rate limited"}}`,
	))
	defer srv.Close()

	c, _ := NewClient(ClientConfig{Provider: ProviderOpenAI, BaseURL: srv.URL, Model: "m"})
	got, err := Collect(context.Background(), c, []Message{{Role: "user", Content: "q"}})
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v", err)
	}
	if got != "partial" {
		t.Errorf("partial content = %q", got)
	}
}

func TestStreamGoogle(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		sseHandler(t,
			`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "}]}}]}`,
			`{"candidates":[{"content":{"role":"model","parts":[{"text":"world"}]}}]}`,
		)(w, r)
	}))
	defer srv.Close()

	c, _ := NewClient(ClientConfig{Provider: ProviderGoogle, BaseURL: srv.URL, APIKey: "k", Model: "gemini-test"})
	got, err := Collect(context.Background(), c, []Message{
		{Role: "assistant", Content: "earlier answer"},
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got != "Hello world" {
		t.Errorf("got %q", got)
	}
	// Chat roles are translated to the Google vocabulary.
	if !strings.Contains(gotBody, `"role":"model"`) {
		t.Errorf("assistant role not mapped: %s", gotBody)
	}
}

func TestNewClientDefaults(t *testing.T) {
	if _, err := NewClient(ClientConfig{Provider: "mystery", Model: "m"}); err == nil {
		t.Error("unknown provider without base URL should fail")
	}
	if _, err := NewClient(ClientConfig{Provider: ProviderOpenAI}); err == nil {
		t.Error("missing model should fail")
	}
	c, err := NewClient(ClientConfig{Provider: ProviderOpenRouter, Model: "m"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.cfg.BaseURL != defaultOpenRouterBase {
		t.Errorf("base = %q", c.cfg.BaseURL)
	}
}

func TestListModelsOpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"zephyr"},{"id":"alpha"},{"id":""}]}`)
	}))
	defer srv.Close()

	models, err := ListModels(context.Background(), srv.Client(), ProviderLMStudio, srv.URL, "")
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0] != "alpha" || models[1] != "zephyr" {
		t.Errorf("models = %v", models)
	}
}

func TestListModelsGoogle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k" {
			http.Error(w, "no key", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"models":[{"name":"models/gemini-pro"},{"name":"models/gemini-flash"}]}`)
	}))
	defer srv.Close()

	models, err := ListModels(context.Background(), srv.Client(), ProviderGoogle, srv.URL, "k")
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0] != "gemini-flash" || models[1] != "gemini-pro" {
		t.Errorf("models = %v, want prefix stripped and sorted", models)
	}
}
