package fetch

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/agentpool"
	"github.com/newscheck/newscheck/internal/blockdetect"
	"github.com/newscheck/newscheck/internal/retry"
	"github.com/newscheck/newscheck/internal/retrylog"
)

type fetchResult struct {
	resp Response
	err  error
}

// fakeFetcher replays queued results; the final entry repeats once the queue
// is drained.
type fakeFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
	lastReq Request
}

func (f *fakeFetcher) Fetch(ctx context.Context, request Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = request
	idx := f.calls - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	r := f.results[idx]
	return r.resp, r.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) lastRequest() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

type resilientClock struct{}

func (resilientClock) Now() time.Time {
	return time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC)
}

func newTestResilient(
	t *testing.T,
	cfg ResilientConfig,
	primary, headless Fetcher,
	soft *blockdetect.SoftBlockDetector,
) (*Resilient, *retrylog.Logger) {
	t.Helper()

	pool, err := agentpool.New([]string{"agent-a", "agent-b"})
	require.NoError(t, err)

	events, err := retrylog.New(t.TempDir(), resilientClock{}, zap.NewNop())
	require.NoError(t, err)

	exec := retry.NewExecutor(retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}, pool, events, zap.NewNop())

	return NewResilient(cfg, primary, headless, exec, pool, soft, zap.NewNop()), events
}

func okResponse(body string) Response {
	return Response{
		URL:        "https://news.example.com/a",
		StatusCode: http.StatusOK,
		Body:       []byte(body),
	}
}

func TestResilientSuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	primary := &fakeFetcher{results: []fetchResult{
		{resp: okResponse("<html><body><article>real content here</article></body></html>")},
	}}
	r, events := newTestResilient(t, ResilientConfig{}, primary, nil, nil)

	resp, err := r.Fetch(context.Background(), Request{URL: "https://news.example.com/a"}, 0)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, primary.callCount())
	require.Zero(t, events.Summary().TotalRetries)
}

func TestResilientRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	primary := &fakeFetcher{results: []fetchResult{
		{err: &blockdetect.HTTPError{StatusCode: http.StatusInternalServerError, URL: "https://news.example.com/a"}},
		{err: &blockdetect.HTTPError{StatusCode: http.StatusInternalServerError, URL: "https://news.example.com/a"}},
		{resp: okResponse("<html><body>finally up</body></html>")},
	}}
	r, events := newTestResilient(t, ResilientConfig{}, primary, nil, nil)

	resp, err := r.Fetch(context.Background(), Request{URL: "https://news.example.com/a"}, 0)
	require.NoError(t, err)
	require.Equal(t, 3, primary.callCount())
	require.Contains(t, string(resp.Body), "finally up")

	// Two scheduled retries plus the success event logged after waiting.
	s := events.Summary()
	require.Equal(t, 3, s.TotalRetries)
	require.Equal(t, 1, s.SuccessCount)
}

func TestResilientCaptchaBodyNeverRetried(t *testing.T) {
	t.Parallel()

	primary := &fakeFetcher{results: []fetchResult{
		{resp: okResponse("<div>please verify you are human</div>")},
	}}
	r, events := newTestResilient(t, ResilientConfig{}, primary, nil, nil)

	_, err := r.Fetch(context.Background(), Request{URL: "https://news.example.com/a"}, 0)
	require.Error(t, err)

	var contentErr *blockdetect.ContentError
	require.ErrorAs(t, err, &contentErr)
	require.Equal(t, blockdetect.Captcha, contentErr.Type)
	require.Equal(t, 1, primary.callCount())

	s := events.Summary()
	require.Equal(t, 1, s.TotalRetries)
	require.Equal(t, 1, s.FailureCount)
}

func TestResilientStatusFilterSkipsRetry(t *testing.T) {
	t.Parallel()

	primary := &fakeFetcher{results: []fetchResult{
		{err: &blockdetect.HTTPError{StatusCode: http.StatusInternalServerError, URL: "https://news.example.com/a"}},
	}}
	cfg := ResilientConfig{RetryOnStatusCodes: []int{http.StatusTooManyRequests, http.StatusForbidden}}
	r, events := newTestResilient(t, cfg, primary, nil, nil)

	_, err := r.Fetch(context.Background(), Request{URL: "https://news.example.com/a"}, 0)
	require.Error(t, err)
	require.Equal(t, 1, primary.callCount())
	require.Zero(t, events.Summary().TotalRetries)
}

func TestResilientMaxAttemptsOverride(t *testing.T) {
	t.Parallel()

	primary := &fakeFetcher{results: []fetchResult{
		{err: &blockdetect.HTTPError{StatusCode: http.StatusServiceUnavailable, URL: "https://news.example.com/a"}},
	}}
	r, _ := newTestResilient(t, ResilientConfig{}, primary, nil, nil)

	_, err := r.Fetch(context.Background(), Request{URL: "https://news.example.com/a"}, 1)
	require.Error(t, err)
	require.Equal(t, 1, primary.callCount())
}

func TestResilientSoftBlockPromotesToHeadless(t *testing.T) {
	t.Parallel()

	primary := &fakeFetcher{results: []fetchResult{
		{resp: okResponse("<html><body>Please enable JavaScript to view this site.</body></html>")},
	}}
	headless := &fakeFetcher{results: []fetchResult{
		{resp: Response{
			URL:          "https://news.example.com/a",
			StatusCode:   http.StatusOK,
			Body:         []byte("<html><body><article>rendered content</article></body></html>"),
			UsedHeadless: true,
		}},
	}}
	soft := blockdetect.NewSoftBlockDetector(0, nil, blockdetect.DefaultSoftBlockMarkers)
	r, _ := newTestResilient(t, ResilientConfig{}, primary, headless, soft)

	resp, err := r.Fetch(context.Background(), Request{URL: "https://news.example.com/a"}, 0)
	require.NoError(t, err)
	require.True(t, resp.UsedHeadless)
	require.Contains(t, string(resp.Body), "rendered content")
	require.Equal(t, 1, headless.callCount())

	// The promoted fetch keeps the browser identity of the plain path.
	headlessHeaders := headless.lastRequest().Headers
	require.NotNil(t, headlessHeaders)
	require.Equal(t, primary.lastRequest().Headers.Get("User-Agent"), headlessHeaders.Get("User-Agent"))
	require.Equal(t, "https://www.google.com/", headlessHeaders.Get("Referer"))
}

func TestResilientKeepsPlainResponseWhenHeadlessFails(t *testing.T) {
	t.Parallel()

	plain := "<html><body>Please enable JavaScript to view this site.</body></html>"
	primary := &fakeFetcher{results: []fetchResult{{resp: okResponse(plain)}}}
	headless := &fakeFetcher{results: []fetchResult{
		{err: &blockdetect.HTTPError{StatusCode: http.StatusBadGateway, URL: "https://news.example.com/a"}},
	}}
	soft := blockdetect.NewSoftBlockDetector(0, nil, blockdetect.DefaultSoftBlockMarkers)
	r, _ := newTestResilient(t, ResilientConfig{}, primary, headless, soft)

	resp, err := r.Fetch(context.Background(), Request{URL: "https://news.example.com/a"}, 0)
	require.NoError(t, err)
	require.False(t, resp.UsedHeadless)
	require.Equal(t, plain, string(resp.Body))
}
