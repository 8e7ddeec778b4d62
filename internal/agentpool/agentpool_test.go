package agentpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyList(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)
}

func TestRoundRobinCoverage(t *testing.T) {
	t.Parallel()

	agents := []string{"a", "b", "c", "d"}
	pool, err := New(agents)
	require.NoError(t, err)

	seen := make(map[string]int)
	first := pool.Next()
	seen[first]++
	for i := 1; i < len(agents); i++ {
		seen[pool.Next()]++
	}
	for _, agent := range agents {
		require.Equal(t, 1, seen[agent], "agent %q returned once per cycle", agent)
	}
	require.Equal(t, first, pool.Next(), "cycle wraps back to the first value")
}

func TestCurrentDoesNotAdvance(t *testing.T) {
	t.Parallel()

	pool, err := New([]string{"a", "b"})
	require.NoError(t, err)

	current := pool.Current()
	require.Equal(t, current, pool.Current())
	require.Equal(t, current, pool.Next())
}

func TestConcurrentNextStaysBalanced(t *testing.T) {
	t.Parallel()

	agents := []string{"a", "b", "c"}
	pool, err := New(agents)
	require.NoError(t, err)

	const rounds = 30
	var (
		mu   sync.Mutex
		hits = make(map[string]int)
		wg   sync.WaitGroup
	)
	for i := 0; i < len(agents)*rounds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agent := pool.Next()
			mu.Lock()
			hits[agent]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, agent := range agents {
		require.Equal(t, rounds, hits[agent])
	}
}
