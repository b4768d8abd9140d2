package engine

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Suggest fans an autocomplete prefix out to several public suggest APIs,
// merges the candidates by frequency and returns the top 10. Individual
// sources failing is normal and silent.
func Suggest(ctx context.Context, prefix string) []string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil
	}

	metrics.SuggestRequests.Add(1)

	type fetcher struct {
		name string
		url  string
	}
	escaped := url.QueryEscape(prefix)
	sources := []fetcher{
		{"ddg", "https://duckduckgo.com/ac/?type=list&q=" + escaped},
		{"brave", "https://search.brave.com/api/suggest?q=" + escaped},
		{"qwant", "https://api.qwant.com/v3/suggest?locale=en_US&version=2&q=" + escaped},
		{"wiki", "https://en.wikipedia.org/w/api.php?action=opensearch&format=json&formatversion=2&namespace=0&limit=10&search=" + escaped},
	}

	var mu sync.Mutex
	var all []string
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src fetcher) {
			defer wg.Done()
			suggestions := fetchSuggest(ctx, src.name, src.url)
			mu.Lock()
			all = append(all, suggestions...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	return topSuggestions(all, 10)
}

// fetchSuggest queries one suggest API and decodes its source-specific shape.
func fetchSuggest(ctx context.Context, source, target string) []string {
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", UserAgentBot)

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		slog.Debug("suggest source failed", slog.String("source", source), slog.Any("error", err))
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}

	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil
	}

	switch source {
	case "ddg", "wiki", "brave":
		// OpenSearch shape: [prefix, [suggestions...], ...]
		arr, ok := root.([]any)
		if !ok || len(arr) < 2 {
			return nil
		}
		items, _ := arr[1].([]any)
		return stringItems(items)
	case "qwant":
		// {"data": {"items": [{"value": "..."}]}}
		items := locateArray(root, "data.items")
		var out []string
		for _, item := range items {
			if v := ExtractPath(item, "value"); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return nil
}

func stringItems(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// topSuggestions counts duplicates across sources and keeps the n most
// frequent; ties preserve first-seen order.
func topSuggestions(all []string, n int) []string {
	counts := make(map[string]int, len(all))
	var order []string
	for _, s := range all {
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}
