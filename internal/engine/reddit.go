package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// maxRedditBodyChars bounds how much selftext survives into a snippet.
const maxRedditBodyChars = 200

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title     string `json:"title"`
				Permalink string `json:"permalink"`
				Selftext  string `json:"selftext"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// searchReddit queries the public search.json endpoint. Long post bodies are
// truncated to a bounded snippet.
func searchReddit(ctx context.Context, query string, _ Timeframe) ([]SearchResult, error) {
	metrics.RedditRequests.Add(1)

	u := "https://www.reddit.com/search.json?sort=relevance&t=all&limit=10&q=" + url.QueryEscape(query)

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
		return nil, fmt.Errorf("reddit status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("reddit decode: %w", err)
	}

	results := make([]SearchResult, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		results = append(results, SearchResult{
			Title:   d.Title,
			URL:     "https://www.reddit.com" + d.Permalink,
			Content: TruncateRunes(d.Selftext, maxRedditBodyChars, ""),
			Engine:  "reddit",
		})
	}
	return results, nil
}
