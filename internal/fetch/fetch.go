// Package fetch provides the HTTP transports behind the scraper: a fast
// colly-based fetcher, a headless chromedp fetcher for pages that refuse to
// render without JavaScript, and a resilient wrapper that combines them with
// the retry executor.
package fetch

import (
	"context"
	"net/http"
	"time"
)

// Request captures everything needed to fetch one URL, including the log
// annotations carried into retry events.
type Request struct {
	URL       string
	Headers   http.Header
	Keyword   string
	ArticleID string
	Stage     string
}

// Response is the result of a completed fetch.
type Response struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request Request) (Response, error)
}

// BrowserHeaders returns the legitimate-browser header set with the given
// user agent applied.
func BrowserHeaders(userAgent string) http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Referer", "https://www.google.com/")
	h.Set("DNT", "1")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("User-Agent", userAgent)
	return h
}
