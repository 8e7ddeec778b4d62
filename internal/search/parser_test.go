package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const resultsPage = `
<html><body>
<div class="SoaBEf">
  <a class="WlydOe" href="/url?q=https://example.com/ai-story&amp;sa=U">
    <div class="n0jPhd ynAwRc MBeuO nDgy9d">AI lab announces new model</div>
  </a>
  <div class="MgUUmf NUnG9d">Example Times</div>
  <div class="GI74Re nDgy9d">The lab said on Tuesday that the model...</div>
  <span class="r0bn4c">·</span>
  <span>2 hours ago</span>
</div>
<div class="SoaBEf">
  <a href="https://other.example.org/markets">
    <div class="n0jPhd ynAwRc MBeuO nDgy9d">Markets rally on chip news</div>
  </a>
  <div class="MgUUmf NUnG9d">Other Daily</div>
  <span>yesterday</span>
</div>
<div class="SoaBEf">
  <a href="https://example.com/untitled"></a>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	articles, err := ParseResults([]byte(resultsPage), "artificial intelligence", now)
	require.NoError(t, err)
	require.Len(t, articles, 2) // the titleless card is dropped

	first := articles[0]
	require.Equal(t, "AI lab announces new model", first.Title)
	require.Equal(t, "https://example.com/ai-story", first.URL)
	require.Equal(t, "Example Times", first.Source)
	require.Equal(t, "The lab said on Tuesday that the model...", first.Snippet)
	require.Equal(t, "artificial intelligence", first.Keyword)
	require.Equal(t, "2 hours ago", first.PublishedRaw)
	require.Equal(t, now.Add(-2*time.Hour), first.PublishedAt)

	second := articles[1]
	require.Equal(t, "Markets rally on chip news", second.Title)
	require.Equal(t, "https://other.example.org/markets", second.URL)
	require.Equal(t, now.AddDate(0, 0, -1), second.PublishedAt)
}

func TestParseResultsEmptyPage(t *testing.T) {
	t.Parallel()

	articles, err := ParseResults([]byte("<html><body><p>no results</p></body></html>"), "x", time.Now())
	require.NoError(t, err)
	require.Empty(t, articles)
}

func TestParseRelativeTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"5 minutes ago", now.Add(-5 * time.Minute)},
		{"1 hour ago", now.Add(-time.Hour)},
		{"3 days ago", now.AddDate(0, 0, -3)},
		{"2 weeks ago", now.AddDate(0, 0, -14)},
		{"Yesterday", now.AddDate(0, 0, -1)},
		{"Dec 5, 2023", time.Date(2023, 12, 5, 0, 0, 0, 0, time.UTC)},
		{"sometime", time.Time{}},
		{"", time.Time{}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ParseRelativeTime(tc.raw, now))
		})
	}
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	  <nav>menu</nav>
	  <article><p>First paragraph.</p><p>Second paragraph.</p><p>First paragraph.</p></article>
	</body></html>`
	got := ExtractText([]byte(page))
	require.Equal(t, "First paragraph.\n\nSecond paragraph.", got)
}
