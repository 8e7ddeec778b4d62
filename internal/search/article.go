// Package search runs keyword news searches against the Google news results
// page and parses them into Article records. It is the primary call site of
// the resilient fetcher and the owner of the run's degradation status.
package search

import "time"

// Article is one parsed news result. Content stays empty until FetchContent
// runs for the article.
type Article struct {
	ID           string    `json:"id"`
	Keyword      string    `json:"keyword"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	Snippet      string    `json:"snippet"`
	PublishedRaw string    `json:"published_raw"`
	PublishedAt  time.Time `json:"published_at,omitzero"`
	Content      string    `json:"content,omitempty"`
	UsedHeadless bool      `json:"used_headless,omitempty"`
}

// Result is what a keyword sweep produces: the collected articles plus the
// degradation outcome callers need for reporting.
type Result struct {
	Articles []Article `json:"articles"`
	Degraded bool      `json:"degraded"`
	Warnings []string  `json:"warnings,omitempty"`
}
