package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// defaultProviders is substituted when no provider is configured, so a
// fresh installation can still answer from the user's own archives.
func defaultProviders() []ProviderConfig {
	return []ProviderConfig{{
		ID:      0,
		Name:    "Local Archives",
		Kind:    KindNative,
		APIURL:  string(NativeLocalArchive),
		Enabled: true,
	}}
}

// Retrieve fans the query out to every provider concurrently, waits for all
// of them, then merges, deduplicates and ranks.
//
// Merge order follows provider configuration order, not completion order, so
// output is deterministic for a deterministic configuration. Slow or failed
// adapters contribute empty slices; nothing is cancelled early.
func Retrieve(ctx context.Context, providers []ProviderConfig, query string, tf Timeframe) []SearchResult {
	metrics.SearchRequests.Add(1)

	if len(providers) == 0 {
		providers = defaultProviders()
	}

	perProvider := make([][]SearchResult, len(providers))
	var wg sync.WaitGroup

	for i, pc := range providers {
		adapter, err := ResolveAdapter(pc)
		if err != nil {
			IncrProviderFailures()
			slog.Warn("provider skipped", slog.String("provider", pc.Name), slog.Any("error", err))
			continue
		}

		wg.Add(1)
		go func(slot int, a Adapter) {
			defer wg.Done()
			perProvider[slot] = a.Search(ctx, query, tf)
		}(i, adapter)
	}

	wg.Wait()

	var merged []SearchResult
	for i, results := range perProvider {
		slog.Debug("provider results",
			slog.String("provider", providers[i].Name),
			slog.Int("count", len(results)))
		merged = append(merged, results...)
	}

	return rankResults(dedupByURL(merged), query)
}

// dedupByURL keeps the first occurrence of each exact URL, preserving
// provider iteration order.
func dedupByURL(results []SearchResult) []SearchResult {
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, r := range results {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, r)
	}
	return out
}

// rankResults stably partitions results: titles containing the query
// (case-insensitive substring) first, everything else after, input order
// preserved within each group.
func rankResults(results []SearchResult, query string) []SearchResult {
	q := strings.ToLower(query)
	ranked := make([]SearchResult, 0, len(results))
	var rest []SearchResult
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Title), q) {
			ranked = append(ranked, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(ranked, rest...)
}
