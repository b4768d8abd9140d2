package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type wikipediaSearchItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type wikipediaResponse struct {
	Query struct {
		Search []wikipediaSearchItem `json:"search"`
	} `json:"query"`
}

// searchWikipedia queries the encyclopedia search API. Snippets come back
// with <span class="searchmatch"> highlight markup which is stripped before
// results leave the adapter.
func searchWikipedia(ctx context.Context, query string, _ Timeframe) ([]SearchResult, error) {
	metrics.WikipediaRequests.Add(1)

	u := "https://en.wikipedia.org/w/api.php?action=query&list=search&utf8=1&format=json&srlimit=10&srsearch=" +
		url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgentBot)

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia status %d", resp.StatusCode)
	}

	var data wikipediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("wikipedia decode: %w", err)
	}

	results := make([]SearchResult, 0, len(data.Query.Search))
	for _, item := range data.Query.Search {
		results = append(results, SearchResult{
			Title:   item.Title,
			URL:     wikipediaArticleURL(item.Title),
			Content: stripSearchMatch(item.Snippet),
			Engine:  "wikipedia",
		})
	}
	return results, nil
}

// wikipediaArticleURL builds the canonical article URL from a title.
func wikipediaArticleURL(title string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(title), "%20", "_")
	escaped = strings.ReplaceAll(escaped, "+", "_")
	return "https://en.wikipedia.org/wiki/" + escaped
}

// stripSearchMatch removes the highlight spans the search API injects.
func stripSearchMatch(snippet string) string {
	snippet = strings.ReplaceAll(snippet, `<span class="searchmatch">`, "")
	snippet = strings.ReplaceAll(snippet, "</span>", "")
	return snippet
}
