// Package store archives scraped article metadata per run, either in
// Postgres or in memory.
package store

import (
	"context"
	"time"
)

// ArticleRecord is one archived article row.
type ArticleRecord struct {
	ID          string
	RunID       string
	Keyword     string
	Title       string
	URL         string
	Source      string
	Category    string
	Score       float64
	PublishedAt time.Time
	ScrapedAt   time.Time
	Degraded    bool
}

// ArticleStore persists article records.
type ArticleStore interface {
	SaveArticle(ctx context.Context, rec ArticleRecord) error
	Close()
}
