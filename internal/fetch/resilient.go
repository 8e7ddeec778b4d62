package fetch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/agentpool"
	"github.com/newscheck/newscheck/internal/blockdetect"
	"github.com/newscheck/newscheck/internal/retry"
)

// ResilientConfig tunes the resilient wrapper.
type ResilientConfig struct {
	// RetryOnStatusCodes limits which HTTP statuses enter the retry loop.
	// Statuses outside the list propagate on first occurrence. An empty list
	// leaves the decision entirely to block classification.
	RetryOnStatusCodes []int
}

// Resilient wraps the plain fetcher in the retry executor, validates
// successful bodies for content-level blocks, and promotes soft-blocked
// pages to the headless fetcher when one is available.
type Resilient struct {
	cfg      ResilientConfig
	primary  Fetcher
	headless Fetcher
	exec     *retry.Executor
	pool     *agentpool.Pool
	soft     *blockdetect.SoftBlockDetector
	log      *zap.Logger
}

// NewResilient builds the wrapper. headless and soft may be nil, which
// disables promotion.
func NewResilient(
	cfg ResilientConfig,
	primary Fetcher,
	headless Fetcher,
	exec *retry.Executor,
	pool *agentpool.Pool,
	soft *blockdetect.SoftBlockDetector,
	log *zap.Logger,
) *Resilient {
	return &Resilient{
		cfg:      cfg,
		primary:  primary,
		headless: headless,
		exec:     exec,
		pool:     pool,
		soft:     soft,
		log:      log,
	}
}

// Fetch runs the full resilient path. maxAttempts, when positive, overrides
// the executor's configured budget (call sites shrink it in degraded mode).
func (r *Resilient) Fetch(ctx context.Context, request Request, maxAttempts int) (Response, error) {
	var resp Response
	op := func(ctx context.Context) error {
		req := request
		if req.Headers == nil {
			req.Headers = BrowserHeaders(r.pool.Current())
		}
		got, err := r.primary.Fetch(ctx, req)
		if err != nil {
			return err
		}
		// A 200 whose body is a CAPTCHA page or empty shell is still a block.
		if bt, blocked := blockdetect.Detect(blockdetect.Sample{
			Status:  got.StatusCode,
			Body:    string(got.Body),
			HasBody: true,
		}); blocked {
			return &blockdetect.ContentError{Type: bt, URL: req.URL}
		}
		resp = got
		return nil
	}

	err := r.exec.Do(ctx, retry.Options{
		URL:         request.URL,
		Keyword:     request.Keyword,
		ArticleID:   request.ArticleID,
		Stage:       request.Stage,
		MaxAttempts: maxAttempts,
		RetryOn:     r.retryOn,
	}, op)
	if err != nil {
		return Response{}, err
	}

	if r.headless != nil && r.soft != nil && r.soft.Blocked(resp.Body) {
		softBlockPromotions.Inc()
		r.log.Info("soft block detected, promoting to headless",
			zap.String("url", request.URL),
			zap.Int("body_bytes", len(resp.Body)))
		headlessReq := request
		if headlessReq.Headers == nil {
			// Keep the identity of the plain path, including any rotation the
			// retry loop performed.
			headlessReq.Headers = BrowserHeaders(r.pool.Current())
		}
		promoted, herr := r.headless.Fetch(ctx, headlessReq)
		if herr == nil {
			return promoted, nil
		}
		r.log.Warn("headless promotion failed, keeping plain response",
			zap.String("url", request.URL), zap.Error(herr))
	}
	return resp, nil
}

// retryOn admits classified content errors and any non-HTTP error; HTTP
// statuses must appear in the configured retry list when one is set.
func (r *Resilient) retryOn(err error) bool {
	if len(r.cfg.RetryOnStatusCodes) == 0 {
		return true
	}
	var httpErr *blockdetect.HTTPError
	if !errors.As(err, &httpErr) {
		return true
	}
	for _, code := range r.cfg.RetryOnStatusCodes {
		if httpErr.StatusCode == code {
			return true
		}
	}
	// Let classification veto instead: hard client errors short-circuit
	// there with a logged permanent failure.
	bt, blocked := blockdetect.Classify(err)
	return blocked && !blockdetect.IsRetryable(bt)
}
