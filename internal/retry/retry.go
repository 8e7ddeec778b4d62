// Package retry wraps fallible fetch operations in a classification-driven
// retry loop: block detection decides whether and how to retry, the agent
// pool rotates identity past fingerprint-correlated blocks, and every
// decision lands in the session retry log.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/agentpool"
	"github.com/newscheck/newscheck/internal/blockdetect"
	"github.com/newscheck/newscheck/internal/retrylog"
)

// Op performs one attempt of the wrapped operation.
type Op func(ctx context.Context) error

// Config carries the policy knobs shared by every execution.
type Config struct {
	// MaxAttempts bounds the total number of Op invocations, not the number
	// of retries: 5 means at most 5 calls and 4 waits.
	MaxAttempts  int
	InitialDelay time.Duration
	// MaxDelay is a hard ceiling on any single wait regardless of attempt.
	MaxDelay time.Duration
	// Strategy is the default backoff curve; the detector's recommendation
	// overrides it per classified failure.
	Strategy blockdetect.Strategy

	// Pre-request pacing: with probability JitterProbability each execution
	// sleeps a uniform delay from [JitterMin, JitterMax] before the first
	// attempt. Zero probability disables it, which tests rely on.
	JitterMin         time.Duration
	JitterMax         time.Duration
	JitterProbability float64
}

// Options carries per-call context: log annotations, predicates, and the
// optional reduced budget used in degraded mode.
type Options struct {
	URL       string
	Keyword   string
	ArticleID string
	Stage     string

	// MaxAttempts overrides Config.MaxAttempts when positive.
	MaxAttempts int

	// RetryOn, when set, must return true for an error to be retried at all.
	// Errors failing the predicate propagate immediately without events.
	RetryOn func(error) bool
	// ExcludeOn short-circuits before any classification or logging.
	ExcludeOn func(error) bool
	// OnRetry observes each scheduled retry, for caller-specific side
	// effects such as metrics.
	OnRetry func(attempt int, wait time.Duration)
}

// Executor runs operations under the retry policy. Construct once and share;
// it is safe for concurrent use.
type Executor struct {
	cfg    Config
	pool   *agentpool.Pool
	events *retrylog.Logger
	log    *zap.Logger

	// test seams
	sleep func(ctx context.Context, d time.Duration) error
	randf func() float64
}

// NewExecutor builds an Executor. The pool and event logger are required
// collaborators; pass zap.NewNop() to silence operational logging.
func NewExecutor(cfg Config, pool *agentpool.Pool, events *retrylog.Logger, log *zap.Logger) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Strategy == "" {
		cfg.Strategy = blockdetect.StrategyExponential
	}
	return &Executor{
		cfg:    cfg,
		pool:   pool,
		events: events,
		log:    log,
		sleep:  sleepCtx,
		randf:  rand.Float64,
	}
}

// Do runs op until success, exhaustion, or a non-retryable failure. Both
// exhaustion and non-retryable blocks surface the original error so callers
// keep a single handling path; the distinction is visible in the log only.
// The context is consulted before every attempt and during every wait.
func (e *Executor) Do(ctx context.Context, opts Options, op Op) error {
	maxAttempts := e.cfg.MaxAttempts
	if opts.MaxAttempts > 0 {
		maxAttempts = opts.MaxAttempts
	}

	if err := e.preJitter(ctx); err != nil {
		return err
	}

	var cumulative time.Duration
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			if cumulative > 0 {
				e.append(opts, retrylog.OutcomeSuccess, nil, "", attempt, maxAttempts, 0, cumulative, false)
			}
			return nil
		}
		attemptsTotal.Inc()

		if opts.ExcludeOn != nil && opts.ExcludeOn(err) {
			return err
		}
		if opts.RetryOn != nil && !opts.RetryOn(err) {
			return err
		}

		blockType, blocked := blockdetect.Classify(err)
		if blocked {
			countBlock(blockType)
		}
		if blocked && !blockdetect.IsRetryable(blockType) {
			e.log.Error("non-retryable block, stopping",
				zap.String("block_type", string(blockType)),
				zap.String("url", opts.URL),
				zap.Error(err))
			e.append(opts, retrylog.OutcomePermanentFailure, err, blockType, attempt, maxAttempts, 0, cumulative, false)
			permanentFailures.Inc()
			return err
		}

		if attempt >= maxAttempts {
			e.log.Error("retries exhausted",
				zap.Int("attempts", attempt),
				zap.String("url", opts.URL),
				zap.Error(err))
			e.append(opts, retrylog.OutcomePermanentFailure, err, blockType, attempt, maxAttempts, 0, cumulative, false)
			permanentFailures.Inc()
			return err
		}

		strategy := e.cfg.Strategy
		if blocked {
			strategy = blockdetect.RetryStrategyFor(blockType)
		}
		wait := e.backoff(strategy, attempt)
		cumulative += wait

		rotated := false
		if blockType == blockdetect.Forbidden || blockType == blockdetect.RateLimit {
			e.pool.Next()
			rotated = true
			rotationsTotal.Inc()
			e.log.Debug("rotated user agent",
				zap.String("block_type", string(blockType)),
				zap.String("agent", truncate(e.pool.Current(), 50)))
		}

		e.log.Info("retry scheduled",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("wait", wait),
			zap.String("url", opts.URL))
		if blocked {
			e.log.Warn("block detected",
				zap.String("block_type", string(blockType)),
				zap.String("error", truncate(err.Error(), 100)))
		}

		e.append(opts, retrylog.OutcomeRetryScheduled, err, blockType, attempt, maxAttempts, wait, cumulative, rotated)
		retriesScheduled.Inc()
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, wait)
		}

		if err := e.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// backoff maps an attempt number to a wait. Exponential growth is
// initial*2^(n-1) capped at MaxDelay; linear is a constant initial delay.
func (e *Executor) backoff(strategy blockdetect.Strategy, attempt int) time.Duration {
	if strategy == blockdetect.StrategyLinear {
		return e.cfg.InitialDelay
	}
	shift := attempt - 1
	if shift > 20 {
		shift = 20 // past here the cap always wins
	}
	delay := e.cfg.InitialDelay << shift
	if delay > e.cfg.MaxDelay || delay <= 0 {
		delay = e.cfg.MaxDelay
	}
	return delay
}

func (e *Executor) preJitter(ctx context.Context) error {
	if e.cfg.JitterProbability <= 0 || e.cfg.JitterMax <= 0 {
		return nil
	}
	if e.randf() >= e.cfg.JitterProbability {
		return nil
	}
	span := e.cfg.JitterMax - e.cfg.JitterMin
	delay := e.cfg.JitterMin
	if span > 0 {
		delay += time.Duration(e.randf() * float64(span))
	}
	return e.sleep(ctx, delay)
}

func (e *Executor) append(
	opts Options,
	outcome retrylog.Outcome,
	err error,
	blockType blockdetect.BlockType,
	attempt, maxAttempts int,
	wait, cumulative time.Duration,
	rotated bool,
) {
	ev := retrylog.Event{
		URL:          retrylog.StringPtr(opts.URL),
		Keyword:      retrylog.StringPtr(opts.Keyword),
		ArticleID:    retrylog.StringPtr(opts.ArticleID),
		ScraperStage: retrylog.StringPtr(opts.Stage),
		Outcome:      outcome,
		BlockType:    retrylog.StringPtr(string(blockType)),
		Metadata: &retrylog.Metadata{
			Attempt:          attempt,
			MaxAttempts:      maxAttempts,
			WaitTime:         wait.Seconds(),
			CumulativeWait:   cumulative.Seconds(),
			UserAgentRotated: rotated,
		},
	}
	if err != nil {
		ev.ErrorType = retrylog.StringPtr(errorType(err))
		ev.ErrorMessage = retrylog.StringPtr(err.Error())
	}
	e.events.Append(ev)
}

// errorType yields a short type label, e.g. "HTTPError" for
// *blockdetect.HTTPError.
func errorType(err error) string {
	name := fmt.Sprintf("%T", err)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
