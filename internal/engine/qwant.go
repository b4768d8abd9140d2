package engine

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// searchQwant scrapes the Qwant web results page. The page is rendered for
// JavaScript clients, so server-side HTML often carries only a subset of
// result cards; whatever is present is extracted.
func searchQwant(ctx context.Context, query string, _ Timeframe) ([]SearchResult, error) {
	metrics.QwantRequests.Add(1)

	target := "https://www.qwant.com/?q=" + url.QueryEscape(query) + "&t=web"

	if err := waitForHost(ctx, target); err != nil {
		return nil, err
	}

	data, err := fetchPage(ctx, target, "https://www.qwant.com/")
	if err != nil {
		return nil, err
	}
	return parseQwantHTML(data)
}

// parseQwantHTML extracts result cards. Cards carry no usable snippet in the
// static markup, so content is a fixed marker.
func parseQwantHTML(data []byte) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	doc.Find(`[data-testid="result-card"]`).Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a").First()
		href, exists := link.Attr("href")
		if !exists || href == "" {
			return
		}
		results = append(results, SearchResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     href,
			Content: "Qwant Result",
			Engine:  "qwant",
		})
	})
	return results, nil
}
