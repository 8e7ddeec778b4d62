package fetch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/newscheck/newscheck/internal/retrylog"
)

// ErrorInfo is the per-failure artifact bridging the resilience core and the
// surrounding pipeline's error reporting.
type ErrorInfo struct {
	ArticleID    string             `json:"article_id"`
	URL          string             `json:"url"`
	ErrorType    string             `json:"error_type"`
	ErrorMessage string             `json:"error_message"`
	Timestamp    string             `json:"timestamp"`
	FetchMethod  string             `json:"fetch_method"`
	Retry        ErrorInfoRetryMeta `json:"retry_metadata"`
}

// ErrorInfoRetryMeta summarizes the retry session at failure time.
type ErrorInfoRetryMeta struct {
	TotalAttempts       int     `json:"total_attempts"`
	SuccessCount        int     `json:"success_count"`
	FailureCount        int     `json:"failure_count"`
	AvgWaitTime         float64 `json:"avg_wait_time"`
	TotalCumulativeWait float64 `json:"total_cumulative_wait"`
	SessionID           string  `json:"session_id"`
	LogFile             string  `json:"log_file"`
}

// WriteErrorInfo persists an error-info JSON file for an unrecoverable fetch
// failure. The file is named after the article id, falling back to a
// timestamp when none exists. Returns the written path.
func WriteErrorInfo(dir string, info ErrorInfo, events *retrylog.Logger, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create error info dir: %w", err)
	}
	if info.Timestamp == "" {
		info.Timestamp = now.Format(time.RFC3339Nano)
	}
	if events != nil {
		s := events.Summary()
		info.Retry = ErrorInfoRetryMeta{
			TotalAttempts:       s.TotalRetries,
			SuccessCount:        s.SuccessCount,
			FailureCount:        s.FailureCount,
			AvgWaitTime:         s.AvgWaitTime,
			TotalCumulativeWait: s.TotalCumulativeWait,
			SessionID:           events.SessionID(),
			LogFile:             events.Path(),
		}
	}

	name := info.ArticleID
	if name == "" {
		name = now.Format("20060102_150405.000000000")
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal error info: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write error info: %w", err)
	}
	return path, nil
}
