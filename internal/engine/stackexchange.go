package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type stackExchangeItem struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Score int    `json:"score"`
}

type stackExchangeResponse struct {
	Items []stackExchangeItem `json:"items"`
}

// searchStackExchange queries the Stack Exchange advanced search API,
// restricted to answered Stack Overflow questions. The vote score is
// surfaced as the display content — Q&A results have no snippet worth
// showing.
func searchStackExchange(ctx context.Context, query string, _ Timeframe) ([]SearchResult, error) {
	metrics.StackExchangeRequests.Add(1)

	u := "https://api.stackexchange.com/2.3/search/advanced" +
		"?order=desc&sort=relevance&accepted=True&answers=1&site=stackoverflow&filter=default&q=" +
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
		return nil, fmt.Errorf("stackexchange status %d", resp.StatusCode)
	}

	var data stackExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("stackexchange decode: %w", err)
	}

	results := make([]SearchResult, 0, len(data.Items))
	for _, item := range data.Items {
		results = append(results, SearchResult{
			Title:   CleanHTML(item.Title),
			URL:     item.Link,
			Content: fmt.Sprintf("Score: %d", item.Score),
			Engine:  "stackexchange",
		})
	}
	return results, nil
}
