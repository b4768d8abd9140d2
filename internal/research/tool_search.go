package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_research/internal/engine"
)

type SearchInput struct {
	Query     string  `json:"query" jsonschema:"Search query"`
	Timeframe string  `json:"timeframe,omitempty" jsonschema:"Restrict to recent results: day, week or month"`
	Providers []int64 `json:"providers,omitempty" jsonschema:"Provider ids to query (default: all enabled)"`
}

type SearchOutput struct {
	Query   string                `json:"query"`
	Count   int                   `json:"count"`
	Results []engine.SearchResult `json:"results"`
}

func registerSearch(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Search all configured providers concurrently and return the merged, deduplicated result list. Fast — no LLM processing, raw results only.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
		if input.Query == "" {
			return nil, SearchOutput{}, fmt.Errorf("query is required")
		}

		ids := make([]string, 0, len(input.Providers))
		for _, id := range input.Providers {
			ids = append(ids, fmt.Sprintf("%d", id))
		}
		cacheKey := engine.CacheKey("search", input.Query, input.Timeframe, strings.Join(ids, ","))
		if out, ok := engine.CacheLoadJSON[SearchOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		providers, err := d.Store.Providers(input.Providers)
		if err != nil {
			slog.Warn("provider load failed, using defaults", slog.Any("error", err))
		}

		results := engine.Retrieve(ctx, providers, input.Query, engine.ParseTimeframe(input.Timeframe))
		if max := engine.Cfg.MaxResults; len(results) > max {
			results = results[:max]
		}

		out := SearchOutput{Query: input.Query, Count: len(results), Results: results}
		engine.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}

type SuggestInput struct {
	Prefix string `json:"prefix" jsonschema:"Partial query to complete"`
}

type SuggestOutput struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}

func registerSuggest(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "suggest",
		Description: "Autocomplete a partial query using several public suggestion endpoints, merged and ranked by cross-engine agreement.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SuggestInput) (*mcp.CallToolResult, SuggestOutput, error) {
		if input.Prefix == "" {
			return nil, SuggestOutput{}, fmt.Errorf("prefix is required")
		}

		cacheKey := engine.CacheKey("suggest", input.Prefix)
		if out, ok := engine.CacheLoadJSON[SuggestOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		out := SuggestOutput{Prefix: input.Prefix, Suggestions: engine.Suggest(ctx, input.Prefix)}
		engine.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}

type FetchPageInput struct {
	URL string `json:"url" jsonschema:"Page URL to fetch and extract"`
}

type FetchPageOutput struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func registerFetchPage(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_page",
		Description: "Fetch a URL and extract its readable content as markdown, stripped of navigation and boilerplate.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input FetchPageInput) (*mcp.CallToolResult, FetchPageOutput, error) {
		if input.URL == "" {
			return nil, FetchPageOutput{}, fmt.Errorf("url is required")
		}

		cacheKey := engine.CacheKey("fetch_page", input.URL)
		if out, ok := engine.CacheLoadJSON[FetchPageOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		title, content, err := engine.FetchURLContent(ctx, input.URL)
		if err != nil {
			return nil, FetchPageOutput{}, fmt.Errorf("fetch failed: %w", err)
		}

		out := FetchPageOutput{URL: input.URL, Title: title, Content: content}
		engine.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}
