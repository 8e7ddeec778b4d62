package fetch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// HeadlessConfig controls the chromedp-backed fetcher.
type HeadlessConfig struct {
	MaxParallel int
	NavTimeout  time.Duration
}

// Headless implements Fetcher with a headless browser. It is the heavy
// fallback for soft-blocked pages: consent walls and JS-only shells that the
// plain HTTP path cannot get past.
type Headless struct {
	cfg         HeadlessConfig
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewHeadless creates the browser allocator. Call Close when done.
func NewHeadless(cfg HeadlessConfig) (*Headless, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("headless max parallel must be >= 0")
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Headless{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close tears down the browser allocator.
func (h *Headless) Close() {
	h.allocCancel()
}

// Fetch navigates with the browser and returns the rendered DOM.
func (h *Headless) Fetch(ctx context.Context, request Request) (Response, error) {
	if err := h.acquire(ctx); err != nil {
		return Response{}, err
	}
	defer h.release()
	headlessFetches.Inc()

	taskCtx, taskCancel := chromedp.NewContext(h.allocator)
	defer taskCancel()
	taskCtx, cancel := context.WithTimeout(taskCtx, h.cfg.NavTimeout)
	defer cancel()

	meta := &docMeta{}
	chromedp.ListenTarget(taskCtx, meta.onEvent)

	start := time.Now()
	var html, finalURL string
	actions := []chromedp.Action{
		h.setupAction(request.Headers),
		chromedp.Navigate(request.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return Response{}, fmt.Errorf("headless navigate %s: %w", request.URL, err)
	}

	status, url := meta.snapshot()
	if url == "" {
		url = finalURL
	}
	if url == "" {
		url = request.URL
	}
	if status == 0 {
		status = http.StatusOK
	}
	return Response{
		URL:          url,
		StatusCode:   status,
		Headers:      http.Header{},
		Body:         []byte(html),
		Duration:     time.Since(start),
		UsedHeadless: true,
	}, nil
}

func (h *Headless) setupAction(headers http.Header) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if ua := headers.Get("User-Agent"); ua != "" {
			if err := emulation.SetUserAgentOverride(ua).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		extra := network.Headers{}
		for key, values := range headers {
			if key == "User-Agent" || len(values) == 0 {
				continue
			}
			extra[key] = values[0]
		}
		if len(extra) > 0 {
			if err := network.SetExtraHTTPHeaders(extra).Do(ctx); err != nil {
				return fmt.Errorf("set extra headers: %w", err)
			}
		}
		return nil
	})
}

func (h *Headless) acquire(ctx context.Context) error {
	if h.limiter == nil {
		return nil
	}
	select {
	case h.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (h *Headless) release() {
	if h.limiter == nil {
		return
	}
	select {
	case <-h.limiter:
	default:
	}
}

// docMeta captures the main document's response status from CDP events.
type docMeta struct {
	mu     sync.Mutex
	status int
	url    string
}

func (m *docMeta) onEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	m.mu.Lock()
	m.status = int(resp.Response.Status)
	m.url = resp.Response.URL
	m.mu.Unlock()
}

func (m *docMeta) snapshot() (int, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.url
}
