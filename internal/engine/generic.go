package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// genericPlaceholder marks where the escaped query lands in the template.
const genericPlaceholder = "{q}"

// GenericAdapter runs a user-declared JSON search API. The provider row
// describes the API declaratively: a URL template with a {q} placeholder,
// optional extra headers, a path locating the result array, and per-item
// paths for title, url and content.
type GenericAdapter struct {
	name        string
	urlTemplate string
	headers     map[string]string
	resultPath  string
	titlePath   string
	urlPath     string
	contentPath string
}

// NewGenericAdapter validates the declarative configuration once, at
// resolution time. The only hard requirement is the {q} placeholder.
func NewGenericAdapter(pc ProviderConfig) (*GenericAdapter, error) {
	if !strings.Contains(pc.APIURL, genericPlaceholder) {
		return nil, fmt.Errorf("generic provider %q: api_url must contain %s", pc.Name, genericPlaceholder)
	}

	headers := map[string]string{}
	if pc.APIHeaders != "" {
		if err := json.Unmarshal([]byte(pc.APIHeaders), &headers); err != nil {
			return nil, fmt.Errorf("generic provider %q: bad api_headers: %w", pc.Name, err)
		}
	}

	return &GenericAdapter{
		name:        pc.Name,
		urlTemplate: pc.APIURL,
		headers:     headers,
		resultPath:  pc.ResultPath,
		titlePath:   pc.TitlePath,
		urlPath:     pc.URLPath,
		contentPath: pc.ContentPath,
	}, nil
}

// Search implements the Adapter contract. All failures degrade to nil.
func (g *GenericAdapter) Search(ctx context.Context, query string, _ Timeframe) []SearchResult {
	metrics.GenericRequests.Add(1)

	ctx, cancel := context.WithTimeout(ctx, cfg.SearchTimeout)
	defer cancel()

	target := strings.ReplaceAll(g.urlTemplate, genericPlaceholder, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		IncrProviderFailures()
		slog.Debug("generic request build failed", slog.String("provider", g.name), slog.Any("error", err))
		return nil
	}
	req.Header.Set("User-Agent", UserAgentChrome)
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		IncrProviderFailures()
		slog.Debug("generic request failed", slog.String("provider", g.name), slog.Any("error", err))
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		IncrProviderFailures()
		return nil
	}

	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		IncrProviderFailures()
		slog.Debug("generic response not JSON", slog.String("provider", g.name), slog.Any("error", err))
		return nil
	}

	return g.extract(root)
}

// extract navigates to the result array and pulls one SearchResult per item.
// Items without a URL are discarded — the URL is the minimum viable identity
// of a result.
func (g *GenericAdapter) extract(root any) []SearchResult {
	items := locateArray(root, g.resultPath)

	var results []SearchResult
	for _, item := range items {
		u := ExtractPath(item, g.urlPath)
		if u == "" {
			continue
		}
		title := ExtractPath(item, g.titlePath)
		if title == "" {
			title = "No Title"
		}
		results = append(results, SearchResult{
			Title:   title,
			URL:     u,
			Content: ExtractPath(item, g.contentPath),
			Engine:  g.name,
		})
	}
	return results
}

// locateArray walks resultPath down the tree to the result array.
// An empty path means the root itself is the array.
func locateArray(root any, path string) []any {
	node := root
	if path != "" {
		for _, seg := range strings.Split(path, ".") {
			m, ok := node.(map[string]any)
			if !ok {
				return nil
			}
			node = m[seg]
		}
	}
	arr, _ := node.([]any)
	return arr
}
