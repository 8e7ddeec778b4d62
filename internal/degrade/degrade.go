// Package degrade tracks fetch outcomes and decides when a run should drop
// into degraded mode: reduced retry budgets and acceptance of partial
// results instead of whole-run failure.
package degrade

import "sync"

// Status accumulates success/failure counters for one scraping run. The
// degraded flag is monotonic: once set it never reverts within a session.
// Combining a rate trigger with a streak trigger catches both slow decay and
// sudden hard blocks without a sliding window.
type Status struct {
	mu sync.Mutex

	totalAttempts       int
	successfulAttempts  int
	failedAttempts      int
	consecutiveFailures int
	successRate         float64
	degraded            bool
	collectedResults    int
	warnings            []string
}

// Snapshot is an immutable copy of Status for reports and the status API.
type Snapshot struct {
	TotalAttempts       int      `json:"total_attempts"`
	SuccessfulAttempts  int      `json:"successful_attempts"`
	FailedAttempts      int      `json:"failed_attempts"`
	ConsecutiveFailures int      `json:"consecutive_failures"`
	SuccessRate         float64  `json:"success_rate"`
	IsDegraded          bool     `json:"is_degraded"`
	CollectedResults    int      `json:"collected_results_count"`
	Warnings            []string `json:"warnings"`
}

// NewStatus returns a Status in the normal state. The success rate of an
// untouched status is defined as 1.0.
func NewStatus() *Status {
	return &Status{successRate: 1.0}
}

// RecordSuccess registers a successful fetch outcome and resets the failure
// streak.
func (s *Status) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAttempts++
	s.successfulAttempts++
	s.consecutiveFailures = 0
	s.recompute()
}

// RecordFailure registers a failed fetch outcome. A non-empty warning is
// kept for report generation.
func (s *Status) RecordFailure(warning string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAttempts++
	s.failedAttempts++
	s.consecutiveFailures++
	s.recompute()
	if warning != "" {
		s.warnings = append(s.warnings, warning)
	}
}

// AddCollected bumps the partial-results counter.
func (s *Status) AddCollected(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectedResults += n
}

// CheckThreshold transitions into degraded mode when the success rate drops
// below minSuccessRate or the failure streak reaches maxConsecutiveFailures,
// and returns the (possibly updated) degraded flag.
func (s *Status) CheckThreshold(minSuccessRate float64, maxConsecutiveFailures int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.successRate < minSuccessRate || s.consecutiveFailures >= maxConsecutiveFailures {
		s.degraded = true
	}
	return s.degraded
}

// IsDegraded reports whether the run has entered degraded mode.
func (s *Status) IsDegraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Snapshot copies the current state.
func (s *Status) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	warnings := make([]string, len(s.warnings))
	copy(warnings, s.warnings)
	return Snapshot{
		TotalAttempts:       s.totalAttempts,
		SuccessfulAttempts:  s.successfulAttempts,
		FailedAttempts:      s.failedAttempts,
		ConsecutiveFailures: s.consecutiveFailures,
		SuccessRate:         s.successRate,
		IsDegraded:          s.degraded,
		CollectedResults:    s.collectedResults,
		Warnings:            warnings,
	}
}

// recompute keeps the derived rate in one place. Callers hold the lock.
func (s *Status) recompute() {
	if s.totalAttempts > 0 {
		s.successRate = float64(s.successfulAttempts) / float64(s.totalAttempts)
		return
	}
	s.successRate = 1.0
}
