package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// searchWeb is the primary web adapter: the DuckDuckGo HTML lite endpoint.
// Uses the browser-fingerprint client when configured, falling back to the
// plain HTTP client with a Chrome user agent.
func searchWeb(ctx context.Context, query string, tf Timeframe) ([]SearchResult, error) {
	metrics.WebRequests.Add(1)

	target := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query) + "&kp=1"
	if df := ddgTimeframe(tf); df != "" {
		target += "&df=" + df
	}

	if err := waitForHost(ctx, target); err != nil {
		return nil, err
	}

	data, err := fetchPage(ctx, target, "https://html.duckduckgo.com/")
	if err != nil {
		return nil, err
	}
	return parseWebHTML(data)
}

// ddgTimeframe maps a timeframe onto DDG's df parameter.
func ddgTimeframe(tf Timeframe) string {
	switch tf {
	case TimeframeDay:
		return "d"
	case TimeframeWeek:
		return "w"
	case TimeframeMonth:
		return "m"
	}
	return ""
}

// fetchPage retrieves a URL body, preferring the browser-fingerprint client.
func fetchPage(ctx context.Context, target, referer string) ([]byte, error) {
	if bc := cfg.BrowserClient; bc != nil {
		headers := ChromeHeaders()
		headers["referer"] = referer
		data, _, status, err := bc.Do("GET", target, headers, nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("status %d", status)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgentChrome)
	req.Header.Set("Referer", referer)
	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseWebHTML extracts search results from the DDG HTML lite response.
func parseWebHTML(data []byte) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("goquery parse: %w", err)
	}

	var results []SearchResult

	doc.Find(".result, .web-result").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a.result__a, .result__title a, a.result-link").First()
		title := strings.TrimSpace(link.Text())
		href, exists := link.Attr("href")
		if !exists || title == "" {
			return
		}

		// DDG wraps URLs in redirects — extract actual URL
		href = ddgUnwrapURL(href)
		if href == "" {
			return
		}

		snippet := s.Find(".result__snippet, .result__body").First()
		content := strings.TrimSpace(snippet.Text())

		results = append(results, SearchResult{
			Title:   title,
			URL:     href,
			Content: content,
			Engine:  "duckduckgo",
		})
	})

	return results, nil
}

// ddgUnwrapURL extracts the actual URL from DDG redirect wrappers.
// DDG HTML wraps links as: //duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com&rut=...
func ddgUnwrapURL(href string) string {
	if strings.Contains(href, "duckduckgo.com/l/") || strings.Contains(href, "uddg=") {
		if u, err := url.Parse(href); err == nil {
			if uddg := u.Query().Get("uddg"); uddg != "" {
				return uddg
			}
		}
	}
	// Already a direct URL
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}
