package retry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/newscheck/newscheck/internal/blockdetect"
)

var (
	// attemptsTotal counts failed operation attempts seen by the executor.
	attemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_retry_failed_attempts_total",
		Help: "The total number of failed fetch attempts observed by the retry executor.",
	})
	// retriesScheduled counts retries the executor actually scheduled.
	retriesScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_retries_scheduled_total",
		Help: "The total number of retries scheduled with backoff.",
	})
	// permanentFailures counts operations surfaced to callers as failed.
	permanentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_permanent_failures_total",
		Help: "The total number of operations that failed permanently.",
	})
	// rotationsTotal counts user-agent rotations triggered by 403/429.
	rotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_user_agent_rotations_total",
		Help: "The total number of user agent rotations.",
	})
	// blocksDetected counts classified blocks by type.
	blocksDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newscheck_blocks_detected_total",
		Help: "The total number of blocking responses detected, by block type.",
	}, []string{"block_type"})
)

func countBlock(bt blockdetect.BlockType) {
	blocksDetected.WithLabelValues(string(bt)).Inc()
}
