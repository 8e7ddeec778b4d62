package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryPublisherRecords(t *testing.T) {
	t.Parallel()

	pub := NewMemory()
	id1, err := pub.Publish(context.Background(), "runs", RunSummary{RunID: "run-1"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id1)

	id2, err := pub.Publish(context.Background(), "runs", RunSummary{RunID: "run-2"})
	require.NoError(t, err)
	require.Equal(t, "memory-2", id2)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "runs", msgs[0].Topic)
	require.Equal(t, "run-1", msgs[0].Payload.(RunSummary).RunID)

	// Messages returns a copy.
	msgs[0].Topic = "modified"
	require.Equal(t, "runs", pub.Messages()[0].Topic)
}
