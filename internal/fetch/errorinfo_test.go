package fetch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/retrylog"
)

func TestWriteErrorInfo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	events, err := retrylog.New(t.TempDir(), resilientClock{}, zap.NewNop())
	require.NoError(t, err)
	events.Append(retrylog.Event{
		Timestamp: "2026-02-03T09:30:00Z",
		Outcome:   retrylog.OutcomePermanentFailure,
		Metadata: &retrylog.Metadata{
			Attempt:        3,
			MaxAttempts:    3,
			WaitTime:       2,
			CumulativeWait: 3,
		},
	})

	now := time.Date(2026, 2, 3, 9, 31, 0, 0, time.UTC)
	path, err := WriteErrorInfo(filepath.Join(dir, "error_info"), ErrorInfo{
		ArticleID:    "a1b2c3",
		URL:          "https://news.example.com/a",
		ErrorType:    "HTTPError",
		ErrorMessage: "http 503: https://news.example.com/a",
		FetchMethod:  "colly",
	}, events, now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "error_info", "a1b2c3.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got ErrorInfo
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "a1b2c3", got.ArticleID)
	require.Equal(t, "HTTPError", got.ErrorType)
	require.Equal(t, now.Format(time.RFC3339Nano), got.Timestamp)
	require.Equal(t, 1, got.Retry.TotalAttempts)
	require.Equal(t, 1, got.Retry.FailureCount)
	require.Equal(t, 3.0, got.Retry.TotalCumulativeWait)
	require.Equal(t, events.SessionID(), got.Retry.SessionID)
	require.Equal(t, events.Path(), got.Retry.LogFile)
}

func TestWriteErrorInfoWithoutArticleID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	now := time.Date(2026, 2, 3, 9, 31, 0, 123456789, time.UTC)
	path, err := WriteErrorInfo(dir, ErrorInfo{
		URL:       "https://news.example.com/b",
		ErrorType: "ContentError",
	}, nil, now)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.NotEqual(t, filepath.Join(dir, ".json"), path)
}
