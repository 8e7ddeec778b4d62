package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/newscheck/newscheck/internal/blockdetect"
)

// ClientConfig controls the colly-backed fetcher.
type ClientConfig struct {
	Timeout       time.Duration
	RespectRobots bool
	// Transport overrides the pooled default, primarily for tests.
	Transport http.RoundTripper
}

// Client implements Fetcher using a colly collector. Each Fetch clones the
// base collector so concurrent fetches never share hook state.
type Client struct {
	cfg       ClientConfig
	transport http.RoundTripper
	base      *colly.Collector
}

// NewClient builds a Client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = newHTTPTransport()
	}
	// colly v2.1.0's Async option sets Async=true regardless of its argument;
	// collectors default to synchronous, so pass no option.
	c := colly.NewCollector()
	c.WithTransport(transport)
	return &Client{
		cfg:       cfg,
		transport: transport,
		base:      c,
	}
}

// Fetch executes a single HTTP GET. Non-success statuses surface as
// *blockdetect.HTTPError so the retry layer can classify them without
// string matching.
func (c *Client) Fetch(ctx context.Context, request Request) (Response, error) {
	var (
		result   Response
		fetchErr error
	)
	requestsTotal.Inc()
	start := time.Now()

	collector := c.base.Clone()
	collector.IgnoreRobotsTxt = !c.cfg.RespectRobots
	collector.SetRequestTimeout(c.cfg.Timeout)
	collector.WithTransport(c.transport)

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range request.Headers {
			for _, v := range values {
				r.Headers.Set(key, v)
			}
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		result = Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchErr = &blockdetect.HTTPError{StatusCode: r.StatusCode, URL: request.URL}
			return
		}
		fetchErr = err
	})

	if err := c.visit(ctx, collector, request.URL); err != nil {
		requestErrors.Inc()
		// OnError saw the structured failure; prefer it over colly's wrapper.
		if fetchErr != nil {
			return Response{}, fetchErr
		}
		return Response{}, err
	}
	if fetchErr != nil {
		requestErrors.Inc()
		return Response{}, fetchErr
	}
	return result, nil
}

// visit runs the collector in a goroutine so a canceled context unblocks the
// caller even while colly is mid-flight.
func (c *Client) visit(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit %s: %w", url, err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
