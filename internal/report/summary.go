package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/newscheck/newscheck/internal/analyzer"
	"github.com/newscheck/newscheck/internal/degrade"
	"github.com/newscheck/newscheck/internal/retrylog"
)

// WriteBriefSummary renders the short markdown digest: topic counts and the
// top headlines, with the degradation banner up front when the run degraded.
func (g *Generator) WriteBriefSummary(scored []analyzer.Scored, topics analyzer.Summary, snap degrade.Snapshot) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# News Brief — %s\n\n", g.clock.Now().Format("January 2, 2006"))
	writeDegradationBanner(&b, snap)

	fmt.Fprintf(&b, "%d articles across %d categories.\n\n", topics.Total, len(topics.ByCategory))
	for _, category := range sortedCategories(topics.ByCategory) {
		fmt.Fprintf(&b, "- %s: %d\n", category, topics.ByCategory[category])
	}
	b.WriteString("\n## Top stories\n\n")
	for i, item := range scored {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** (%s, score %.2f)\n", i+1,
			item.Article.Title, item.Article.Source, item.Score)
		if item.Article.URL != "" {
			fmt.Fprintf(&b, "   %s\n", item.Article.URL)
		}
	}

	name := fmt.Sprintf("news_brief_%s.md", g.stamp())
	return g.writeFile(name, []byte(b.String()))
}

// WriteDetailedReport renders the full markdown report: every ranked article
// with snippet and insight, the category breakdown, the retry session
// statistics, and any degradation warnings.
func (g *Generator) WriteDetailedReport(
	scored []analyzer.Scored,
	topics analyzer.Summary,
	snap degrade.Snapshot,
	retries retrylog.Summary,
) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# News Report — %s\n\n", g.clock.Now().Format("January 2, 2006"))
	writeDegradationBanner(&b, snap)

	b.WriteString("## Category breakdown\n\n")
	for _, category := range sortedCategories(topics.ByCategory) {
		fmt.Fprintf(&b, "- %s: %d articles\n", category, topics.ByCategory[category])
	}

	b.WriteString("\n## Articles\n\n")
	for _, item := range scored {
		fmt.Fprintf(&b, "### %s\n\n", item.Article.Title)
		fmt.Fprintf(&b, "- Category: %s\n- Score: %.2f\n- Source: %s\n- URL: %s\n",
			item.Category, item.Score, item.Article.Source, item.Article.URL)
		if item.Article.PublishedRaw != "" {
			fmt.Fprintf(&b, "- Published: %s\n", item.Article.PublishedRaw)
		}
		if item.Article.Snippet != "" {
			fmt.Fprintf(&b, "\n%s\n", item.Article.Snippet)
		}
		if item.Insight != "" {
			fmt.Fprintf(&b, "\n> %s\n", item.Insight)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Fetch statistics\n\n")
	fmt.Fprintf(&b, "- Attempts: %d (%d ok, %d failed)\n",
		snap.TotalAttempts, snap.SuccessfulAttempts, snap.FailedAttempts)
	fmt.Fprintf(&b, "- Success rate: %.0f%%\n", snap.SuccessRate*100)
	fmt.Fprintf(&b, "- Retry events: %d (avg wait %.2fs, total wait %.2fs)\n",
		retries.TotalRetries, retries.AvgWaitTime, retries.TotalCumulativeWait)

	name := fmt.Sprintf("news_report_%s.md", g.stamp())
	return g.writeFile(name, []byte(b.String()))
}

// writeDegradationBanner emits the warning block for degraded runs; clean
// runs get nothing.
func writeDegradationBanner(b *strings.Builder, snap degrade.Snapshot) {
	if !snap.IsDegraded {
		return
	}
	b.WriteString("> **DEGRADED MODE** — results are partial. ")
	fmt.Fprintf(b, "Success rate %.0f%% over %d attempts, %d results collected.\n",
		snap.SuccessRate*100, snap.TotalAttempts, snap.CollectedResults)
	for _, warning := range snap.Warnings {
		fmt.Fprintf(b, "> - %s\n", warning)
	}
	b.WriteString("\n")
}

func sortedCategories(counts map[string]int) []string {
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
