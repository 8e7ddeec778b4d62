package blockdetect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSoftBlockDetector(t *testing.T) {
	t.Parallel()

	d := NewSoftBlockDetector(64, []string{"div.article"}, DefaultSoftBlockMarkers)

	require.True(t, d.Blocked([]byte("<html></html>")), "tiny shell body")
	require.True(t, d.Blocked([]byte(`<html><body><p>Please enable JavaScript to continue using this site like everyone else does.</p></body></html>`)))
	require.True(t, d.Blocked([]byte(`<html><body><p>Our systems have detected unusual traffic from your network over the last few hours.</p></body></html>`)))
	require.True(t, d.Blocked([]byte(`<html><body><main><p>Nothing resembling an article container lives anywhere on this page at all.</p></main></body></html>`)),
		"required selector missing")
	require.False(t, d.Blocked([]byte(`<html><body><div class="article"><p>A perfectly ordinary news article body with plenty of content.</p></div></body></html>`)))
}

func TestSoftBlockDetectorNilAndEmpty(t *testing.T) {
	t.Parallel()

	var d *SoftBlockDetector
	require.False(t, d.Blocked([]byte("anything")))

	noRules := NewSoftBlockDetector(0, nil, nil)
	require.False(t, noRules.Blocked([]byte("<html><body>ok</body></html>")))
}
