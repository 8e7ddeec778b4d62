package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNowReturnsUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	got := clk.Now()
	require.Equal(t, time.UTC, got.Location())
	require.WithinDuration(t, time.Now().UTC(), got, time.Second)
}

func TestNowNonDecreasing(t *testing.T) {
	t.Parallel()

	clk := New()
	first := clk.Now()
	second := clk.Now()
	require.False(t, second.Before(first))
}
