// Package blockdetect classifies failed or refused fetches into block types
// and recommends retry behavior per type.
package blockdetect

import (
	"context"
	"errors"
	"net"
	"os"
	"regexp"
	"strings"
	"syscall"
)

// BlockType identifies why a fetch failed or was refused.
type BlockType string

// Block types produced by Detect, plus SoftBlock which is only produced by
// the HTML heuristic (see SoftBlockDetector).
const (
	RateLimit       BlockType = "rate_limit"       // HTTP 429
	Forbidden       BlockType = "forbidden"        // HTTP 403
	Captcha         BlockType = "captcha"          // CAPTCHA page detected
	Timeout         BlockType = "timeout"          // request or connection timeout
	ConnectionError BlockType = "connection_error" // network connection failed
	ServerError     BlockType = "server_error"     // HTTP 5xx
	InvalidHTML     BlockType = "invalid_html"     // empty or malformed body
	NonRetryable    BlockType = "non_retryable"    // 404, 410, 401, 400
	SoftBlock       BlockType = "soft_block"       // consent walls, JS-required shells
)

// Strategy names a backoff curve.
type Strategy string

// Backoff strategies recommended per block type.
const (
	StrategyLinear      Strategy = "linear"
	StrategyExponential Strategy = "exponential"
)

var captchaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)captcha`),
	regexp.MustCompile(`(?i)recaptcha`),
	regexp.MustCompile(`(?i)g-recaptcha`),
	regexp.MustCompile(`(?i)bot.*detection`),
	regexp.MustCompile(`(?i)verify.*human`),
	regexp.MustCompile(`(?i)please.*verify`),
}

// Sample is the structured view of one fetch outcome handed to Detect.
// A zero Status means no HTTP response was received; HasBody distinguishes
// "no body available" from "body present but empty".
type Sample struct {
	Status  int
	Err     error
	Body    string
	HasBody bool
}

// Detect classifies a fetch outcome. The second return is false when the
// sample shows no block at all. Decision order: transport errors, then
// status codes, then body content. Detect never fails on partial input.
func Detect(s Sample) (BlockType, bool) {
	if s.Status == 0 && s.Err == nil && !s.HasBody {
		return "", false
	}

	if s.Err != nil {
		switch {
		case isTimeout(s.Err):
			return Timeout, true
		case isConnection(s.Err):
			return ConnectionError, true
		}
	}

	switch {
	case s.Status == 429:
		return RateLimit, true
	case s.Status == 403:
		return Forbidden, true
	case s.Status >= 500 && s.Status < 600:
		return ServerError, true
	case s.Status == 404 || s.Status == 410 || s.Status == 401 || s.Status == 400:
		return NonRetryable, true
	}

	if s.HasBody {
		if strings.TrimSpace(s.Body) == "" {
			return InvalidHTML, true
		}
		for _, p := range captchaPatterns {
			if p.MatchString(s.Body) {
				return Captcha, true
			}
		}
	}

	return "", false
}

// Classify maps a structured fetch error onto a block type. Errors that carry
// no block signal return false, which callers treat as retryable-by-default.
func Classify(err error) (BlockType, bool) {
	if err == nil {
		return "", false
	}
	var content *ContentError
	if errors.As(err, &content) {
		return content.Type, true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return Detect(Sample{Status: httpErr.StatusCode})
	}
	return Detect(Sample{Err: err})
}

// IsRetryable reports whether the block type should consume retry budget.
// Only CAPTCHA and hard client errors are permanent.
func IsRetryable(bt BlockType) bool {
	return bt != Captcha && bt != NonRetryable
}

// RetryStrategyFor recommends a backoff curve. Transient network conditions
// warrant steady short retries; rate limiting and server overload get
// exponential backoff to shed load.
func RetryStrategyFor(bt BlockType) Strategy {
	if bt == Timeout || bt == ConnectionError {
		return StrategyLinear
	}
	return StrategyExponential
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnection(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
