package engine

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Scraping endpoints tolerate far less traffic than JSON APIs, so every
// HTML-scraping adapter waits on a per-host limiter before each request.
var hostLimiters sync.Map // host → *rate.Limiter

// hostLimiter returns the shared limiter for a host: 1 req/sec, burst 3.
func hostLimiter(host string) *rate.Limiter {
	if v, ok := hostLimiters.Load(host); ok {
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rate.Limit(1), 3)
	actual, _ := hostLimiters.LoadOrStore(host, l)
	return actual.(*rate.Limiter)
}

// waitForHost blocks until the host's rate limiter admits one request or the
// context is cancelled.
func waitForHost(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return hostLimiter(u.Hostname()).Wait(ctx)
}
