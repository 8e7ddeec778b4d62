package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"github.com/newscheck/newscheck/internal/blockdetect"
)

func newMockedClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	client := NewClient(ClientConfig{
		Timeout:   5 * time.Second,
		Transport: transport,
	})
	return client, transport
}

func TestClientFetchSuccess(t *testing.T) {
	t.Parallel()

	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, "https://news.example.com/article",
		httpmock.NewStringResponder(http.StatusOK, "<html><body>breaking news</body></html>"))

	resp, err := client.Fetch(context.Background(), Request{URL: "https://news.example.com/article"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "breaking news")
	require.Equal(t, "https://news.example.com/article", resp.URL)
}

func TestClientFetchErrorStatus(t *testing.T) {
	t.Parallel()

	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, "https://news.example.com/limited",
		httpmock.NewStringResponder(http.StatusTooManyRequests, "slow down"))

	_, err := client.Fetch(context.Background(), Request{URL: "https://news.example.com/limited"})
	require.Error(t, err)

	var httpErr *blockdetect.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	require.Equal(t, "https://news.example.com/limited", httpErr.URL)
}

func TestClientFetchSendsRequestHeaders(t *testing.T) {
	t.Parallel()

	client, transport := newMockedClient(t)

	var gotAgent, gotReferer string
	transport.RegisterResponder(http.MethodGet, "https://news.example.com/headers",
		func(req *http.Request) (*http.Response, error) {
			gotAgent = req.Header.Get("User-Agent")
			gotReferer = req.Header.Get("Referer")
			return httpmock.NewStringResponse(http.StatusOK, "ok"), nil
		})

	_, err := client.Fetch(context.Background(), Request{
		URL:     "https://news.example.com/headers",
		Headers: BrowserHeaders("agent-under-test"),
	})
	require.NoError(t, err)
	require.Equal(t, "agent-under-test", gotAgent)
	require.Equal(t, "https://www.google.com/", gotReferer)
}

func TestClientFetchContextCanceled(t *testing.T) {
	t.Parallel()

	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, "https://news.example.com/slow",
		func(req *http.Request) (*http.Response, error) {
			time.Sleep(300 * time.Millisecond)
			return httpmock.NewStringResponse(http.StatusOK, "late"), nil
		})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Fetch(ctx, Request{URL: "https://news.example.com/slow"})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}
