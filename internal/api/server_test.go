package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/degrade"
	"github.com/newscheck/newscheck/internal/retrylog"
)

type fakeSource struct{ status Status }

func (f fakeSource) Status() Status { return f.status }

func newTestServer(source StatusSource) *httptest.Server {
	return httptest.NewServer(NewServer(source, zap.NewNop()).Handler())
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(fakeSource{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	source := fakeSource{status: Status{
		SessionID: "20260203_090000",
		Retries:   retrylog.Summary{TotalRetries: 4, FailureCount: 1, TotalCumulativeWait: 7.5},
		Degradation: degrade.Snapshot{
			IsDegraded:  true,
			SuccessRate: 0.4,
			Warnings:    []string{"rate limited"},
		},
	}}
	srv := newTestServer(source)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "20260203_090000", got.SessionID)
	require.Equal(t, 4, got.Retries.TotalRetries)
	require.True(t, got.Degradation.IsDegraded)
	require.Equal(t, []string{"rate limited"}, got.Degradation.Warnings)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(fakeSource{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
