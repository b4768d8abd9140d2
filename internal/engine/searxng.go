package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type searxngResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searxngResponse struct {
	Results []searxngResult `json:"results"`
}

// searchSearxng forwards the query to a self-hosted SearXNG instance.
// An unset base URL yields zero results rather than an error — the
// aggregator is optional infrastructure.
func searchSearxng(ctx context.Context, query string, tf Timeframe) ([]SearchResult, error) {
	if cfg.SearxngURL == "" {
		return nil, nil
	}

	metrics.SearxngRequests.Add(1)

	u, err := url.Parse(cfg.SearxngURL + "/search")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	if tf != TimeframeNone {
		q.Set("time_range", string(tf))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, err
	}
	if cfg.SearxngUser != "" {
		req.SetBasicAuth(cfg.SearxngUser, cfg.SearxngPassword)
	}

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("searxng decode: %w", err)
	}

	results := make([]SearchResult, 0, len(data.Results))
	for _, r := range data.Results {
		results = append(results, SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Engine:  "searxng",
		})
	}
	return results, nil
}
