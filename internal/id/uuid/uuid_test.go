package uuid

import (
	"testing"

	goUUID "github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewIDUniqueAndTimeSortable(t *testing.T) {
	t.Parallel()

	gen := New()
	first, err := gen.NewID()
	require.NoError(t, err)
	second, err := gen.NewID()
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	parsed, err := goUUID.Parse(first)
	require.NoError(t, err)
	require.Equal(t, goUUID.Version(7), parsed.Version())
	// v7 embeds a timestamp prefix, so sequential IDs sort in issue order.
	require.Less(t, first, second)
}
