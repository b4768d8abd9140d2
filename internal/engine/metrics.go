package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchRequests        atomic.Int64
	ProviderFailures      atomic.Int64
	SearxngRequests       atomic.Int64
	WebRequests           atomic.Int64
	WikipediaRequests     atomic.Int64
	RedditRequests        atomic.Int64
	StackExchangeRequests atomic.Int64
	MojeekRequests        atomic.Int64
	QwantRequests         atomic.Int64
	TwitterRequests       atomic.Int64
	GenericRequests       atomic.Int64
	ArchiveScans          atomic.Int64
	SuggestRequests       atomic.Int64
	FetchRequests         atomic.Int64
	FetchErrors           atomic.Int64
	LLMCalls              atomic.Int64
	LLMErrors             atomic.Int64
}

// IncrProviderFailures records one soft-failed adapter call.
func IncrProviderFailures() { metrics.ProviderFailures.Add(1) }

// IncrArchiveScans records one cross-archive retrieval pass.
func IncrArchiveScans() { metrics.ArchiveScans.Add(1) }

// IncrLLMCalls / IncrLLMErrors are used by the llm sub-package.
func IncrLLMCalls()  { metrics.LLMCalls.Add(1) }
func IncrLLMErrors() { metrics.LLMErrors.Add(1) }

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"search_requests":        metrics.SearchRequests.Load(),
		"provider_failures":      metrics.ProviderFailures.Load(),
		"searxng_requests":       metrics.SearxngRequests.Load(),
		"web_requests":           metrics.WebRequests.Load(),
		"wikipedia_requests":     metrics.WikipediaRequests.Load(),
		"reddit_requests":        metrics.RedditRequests.Load(),
		"stackexchange_requests": metrics.StackExchangeRequests.Load(),
		"mojeek_requests":        metrics.MojeekRequests.Load(),
		"qwant_requests":         metrics.QwantRequests.Load(),
		"twitter_requests":       metrics.TwitterRequests.Load(),
		"generic_requests":       metrics.GenericRequests.Load(),
		"archive_scans":          metrics.ArchiveScans.Load(),
		"suggest_requests":       metrics.SuggestRequests.Load(),
		"fetch_requests":         metrics.FetchRequests.Load(),
		"fetch_errors":           metrics.FetchErrors.Load(),
		"llm_calls":              metrics.LLMCalls.Load(),
		"llm_errors":             metrics.LLMErrors.Load(),
		"cache_hits":             hits,
		"cache_misses":           misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"search_requests", "provider_failures",
		"searxng_requests", "web_requests", "wikipedia_requests",
		"reddit_requests", "stackexchange_requests", "mojeek_requests",
		"qwant_requests", "twitter_requests", "generic_requests",
		"archive_scans", "suggest_requests",
		"fetch_requests", "fetch_errors",
		"llm_calls", "llm_errors",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
