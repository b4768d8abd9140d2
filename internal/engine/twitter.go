package engine

import (
	"context"
	"fmt"
	"strings"
)

// searchTwitter searches recent tweets. A nil client (no accounts
// configured) yields zero results.
func searchTwitter(ctx context.Context, query string, _ Timeframe) ([]SearchResult, error) {
	tw := cfg.TwitterClient
	if tw == nil {
		return nil, nil
	}

	metrics.TwitterRequests.Add(1)

	tweets, err := tw.SearchTimeline(ctx, query, 10)
	if err != nil {
		return nil, fmt.Errorf("twitter search: %w", err)
	}

	results := make([]SearchResult, 0, len(tweets))
	for _, t := range tweets {
		// First line as title, full text as content
		lines := strings.SplitN(strings.TrimSpace(t.Text), "\n", 2)
		title := TruncateRunes(lines[0], 120, "...")

		results = append(results, SearchResult{
			Title:   title,
			URL:     "https://x.com/i/status/" + t.ID,
			Content: fmt.Sprintf("Likes: %d | RT: %d\n%s", t.Likes, t.Retweets, t.Text),
			Engine:  "twitter",
		})
	}
	return results, nil
}
