package cmd

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/config"
	"github.com/newscheck/newscheck/internal/notify"
)

type fakeApp struct {
	ran    bool
	closed bool
	err    error
}

func (f *fakeApp) Run(_ context.Context) (notify.RunSummary, error) {
	f.ran = true
	return notify.RunSummary{RunID: "run-1"}, f.err
}

func (f *fakeApp) Close() {
	f.closed = true
}

func withFakeApp(t *testing.T, fake *fakeApp) {
	t.Helper()
	orig := newApp
	newApp = func(_ context.Context, _ config.Config, _ *zap.Logger) (App, error) {
		return fake, nil
	}
	t.Cleanup(func() { newApp = orig })
}

func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestScrapeCommandRunsAndClosesApp(t *testing.T) {
	t.Setenv("NEWSCHECK_SEARCH_KEYWORDS", "test topic")

	fake := &fakeApp{}
	withFakeApp(t, fake)

	require.NoError(t, execute(newRootCmd(), "scrape"))
	require.True(t, fake.ran)
	require.True(t, fake.closed)
}

func TestScrapeCommandPropagatesRunFailure(t *testing.T) {
	t.Setenv("NEWSCHECK_SEARCH_KEYWORDS", "test topic")

	fake := &fakeApp{err: errors.New("sweep exploded")}
	withFakeApp(t, fake)

	err := execute(newRootCmd(), "scrape")
	require.Error(t, err)
	require.Contains(t, err.Error(), "sweep exploded")
}

func TestScrapeCommandSwallowsCancellation(t *testing.T) {
	t.Setenv("NEWSCHECK_SEARCH_KEYWORDS", "test topic")

	fake := &fakeApp{err: context.Canceled}
	withFakeApp(t, fake)

	require.NoError(t, execute(newRootCmd(), "scrape"))
}

func TestRootCommandFailsOnBadConfig(t *testing.T) {
	t.Setenv("NEWSCHECK_SEARCH_KEYWORDS", "")

	withFakeApp(t, &fakeApp{})

	err := execute(newRootCmd(), "scrape")
	require.Error(t, err)
	require.Contains(t, err.Error(), "load config")
}
