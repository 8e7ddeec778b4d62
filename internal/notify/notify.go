// Package notify publishes run-completion events: in memory by default, or
// to a Google Cloud Pub/Sub topic.
package notify

import (
	"context"
	"time"
)

// RunSummary is the payload published when a scrape run finishes.
type RunSummary struct {
	RunID             string    `json:"run_id"`
	SessionID         string    `json:"session_id"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	Keywords          []string  `json:"keywords"`
	ArticlesCollected int       `json:"articles_collected"`
	UniqueArticles    int       `json:"unique_articles"`
	RankedArticles    int       `json:"ranked_articles"`
	Degraded          bool      `json:"degraded"`
	SuccessRate       float64   `json:"success_rate"`
	RetryEvents       int       `json:"retry_events"`
	Artifacts         []string  `json:"artifacts,omitempty"`
}

// Publisher delivers a run summary to a topic and returns the message ID.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
