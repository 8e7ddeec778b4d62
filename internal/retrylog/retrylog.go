// Package retrylog persists retry decisions as a session-scoped JSON
// document. Logging here is observability, not correctness: persistence
// failures are reported and swallowed so a broken disk never aborts a fetch.
package retrylog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Outcome labels a retry decision point.
type Outcome string

// Event outcomes.
const (
	OutcomeRetryScheduled   Outcome = "retry_scheduled"
	OutcomeSuccess          Outcome = "success"
	OutcomePermanentFailure Outcome = "permanent_failure"
)

// Metadata describes one retry attempt. Wait times are in seconds to match
// the persisted artifact.
type Metadata struct {
	Attempt          int     `json:"attempt"`
	MaxAttempts      int     `json:"max_attempts"`
	WaitTime         float64 `json:"wait_time"`
	CumulativeWait   float64 `json:"cumulative_wait"`
	UserAgentRotated bool    `json:"user_agent_rotated"`
}

// Event is one retry decision. Optional fields marshal as null when absent.
type Event struct {
	Timestamp    string    `json:"timestamp"`
	URL          *string   `json:"url"`
	Keyword      *string   `json:"keyword"`
	ArticleID    *string   `json:"article_id"`
	ScraperStage *string   `json:"scraper_stage"`
	ErrorType    *string   `json:"error_type"`
	ErrorMessage *string   `json:"error_message"`
	Metadata     *Metadata `json:"retry_metadata"`
	Outcome      Outcome   `json:"outcome"`
	BlockType    *string   `json:"block_type"`
}

// Summary aggregates a session's events.
type Summary struct {
	TotalRetries        int     `json:"total_retries"`
	SuccessCount        int     `json:"success_count"`
	FailureCount        int     `json:"failure_count"`
	AvgWaitTime         float64 `json:"avg_wait_time"`
	TotalCumulativeWait float64 `json:"total_cumulative_wait"`
}

type degradationInfo struct {
	IsDegraded bool    `json:"is_degraded"`
	Timestamp  *string `json:"degradation_timestamp"`
	Reason     *string `json:"degradation_reason"`
}

type sessionDocument struct {
	SessionID   string          `json:"session_id"`
	Events      []Event         `json:"events"`
	Degradation degradationInfo `json:"degradation_info"`
}

// Clock supplies the current time; injected so session ids are testable.
type Clock interface {
	Now() time.Time
}

// Logger owns one retry session: an append-only in-memory event list mirrored
// to a JSON artifact after every append. Safe for concurrent use.
type Logger struct {
	mu        sync.Mutex
	sessionID string
	path      string
	doc       sessionDocument
	clock     Clock
	log       *zap.Logger
}

// New creates the session directory and writes the initial empty document.
// The artifact lives at <outputDir>/retry_logs/<session>_retry_log.json with
// the session id derived from the current timestamp.
func New(outputDir string, clock Clock, log *zap.Logger) (*Logger, error) {
	logDir := filepath.Join(outputDir, "retry_logs")
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("create retry log dir: %w", err)
	}
	sessionID := clock.Now().Format("20060102_150405")
	l := &Logger{
		sessionID: sessionID,
		path:      filepath.Join(logDir, sessionID+"_retry_log.json"),
		doc: sessionDocument{
			SessionID: sessionID,
			Events:    []Event{},
		},
		clock: clock,
		log:   log,
	}
	l.mu.Lock()
	l.flush()
	l.mu.Unlock()
	return l, nil
}

// SessionID returns the timestamp-derived session identifier.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Path returns the artifact location.
func (l *Logger) Path() string {
	return l.path
}

// Append records an event in strict call order and rewrites the artifact.
func (l *Logger) Append(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ev.Timestamp == "" {
		ev.Timestamp = l.clock.Now().Format(time.RFC3339Nano)
	}
	l.doc.Events = append(l.doc.Events, ev)
	l.flush()
}

// MarkDegraded sets the session-level degradation annotation. This is a log
// marker, not a decision input; degradation decisions live in degrade.Status.
func (l *Logger) MarkDegraded(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := l.clock.Now().Format(time.RFC3339Nano)
	l.doc.Degradation = degradationInfo{
		IsDegraded: true,
		Timestamp:  &ts,
		Reason:     &reason,
	}
	l.flush()
}

// Summary scans the in-memory event list. Wait-time statistics consider only
// events carrying retry metadata; the total cumulative wait is the largest
// cumulative value observed.
func (l *Logger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{TotalRetries: len(l.doc.Events)}
	var waitSum, maxCumulative float64
	var waitCount int
	for _, ev := range l.doc.Events {
		switch ev.Outcome {
		case OutcomeSuccess:
			s.SuccessCount++
		case OutcomePermanentFailure:
			s.FailureCount++
		}
		if ev.Metadata == nil {
			continue
		}
		waitSum += ev.Metadata.WaitTime
		waitCount++
		if ev.Metadata.CumulativeWait > maxCumulative {
			maxCumulative = ev.Metadata.CumulativeWait
		}
	}
	if waitCount > 0 {
		s.AvgWaitTime = round2(waitSum / float64(waitCount))
	}
	s.TotalCumulativeWait = round2(maxCumulative)
	return s
}

// flush rewrites the whole artifact. Callers hold the lock. Write errors are
// logged and dropped; retry volume is tens of events per run, so rewriting
// the document each time is fine.
func (l *Logger) flush() {
	data, err := json.MarshalIndent(l.doc, "", "  ")
	if err != nil {
		l.log.Warn("marshal retry log", zap.Error(err))
		return
	}
	if err := os.WriteFile(l.path, data, 0o600); err != nil {
		l.log.Warn("persist retry log", zap.String("path", l.path), zap.Error(err))
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// StringPtr adapts a literal for optional event fields. Empty strings stay
// nil so the artifact shows null rather than "".
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
