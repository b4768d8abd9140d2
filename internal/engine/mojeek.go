package engine

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// searchMojeek scrapes Mojeek's results page. The markup is stable enough
// for tree-based parsing with golang.org/x/net/html.
func searchMojeek(ctx context.Context, query string, _ Timeframe) ([]SearchResult, error) {
	metrics.MojeekRequests.Add(1)

	target := "https://www.mojeek.com/search?q=" + url.QueryEscape(query)
	if err := waitForHost(ctx, target); err != nil {
		return nil, err
	}

	data, err := fetchPage(ctx, target, "https://www.mojeek.com/")
	if err != nil {
		return nil, err
	}
	return parseMojeekHTML(string(data)), nil
}

// parseMojeekHTML extracts results from li.r entries under ul.results-standard.
func parseMojeekHTML(body string) []SearchResult {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var results []SearchResult
	for _, node := range findAllByClass(doc, "li", "r") {
		r := parseMojeekEntry(node)
		if r.URL != "" && r.Title != "" {
			results = append(results, r)
		}
	}
	return results
}

// parseMojeekEntry extracts one result from an <li class="r"> node.
func parseMojeekEntry(li *html.Node) SearchResult {
	var r SearchResult
	r.Engine = "mojeek"

	if a := findElement(li, "a"); a != nil {
		r.URL = strings.TrimSpace(getAttr(a, "href"))
		r.Title = strings.TrimSpace(textContent(a))
	}
	if p := findByClass(li, "p", "s"); p != nil {
		r.Content = strings.TrimSpace(textContent(p))
	}
	return r
}

// --- HTML tree helpers ---

// getAttr returns the value of an attribute on a node, or "".
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClass checks if a node's class attribute contains the given class name.
func hasClass(n *html.Node, className string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == className {
			return true
		}
	}
	return false
}

// textContent recursively extracts all text from a node.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// findElement finds the first descendant element with the given tag.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// findByClass finds the first descendant element with the given tag and class.
func findByClass(n *html.Node, tag, className string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && hasClass(n, className) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, tag, className); found != nil {
			return found
		}
	}
	return nil
}

// findAllByClass collects every descendant element with the given tag and class.
func findAllByClass(n *html.Node, tag, className string) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && n.Data == tag && hasClass(n, className) {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findAllByClass(c, tag, className)...)
	}
	return out
}
