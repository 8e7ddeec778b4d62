package store

import (
	"context"
	"sync"
)

// Memory is the default archive when no database is configured.
type Memory struct {
	mu       sync.Mutex
	articles []ArticleRecord
}

// NewMemory creates an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{}
}

// SaveArticle appends the record.
func (m *Memory) SaveArticle(_ context.Context, rec ArticleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles = append(m.articles, rec)
	return nil
}

// Articles returns a copy of everything archived so far.
func (m *Memory) Articles() []ArticleRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ArticleRecord, len(m.articles))
	copy(out, m.articles)
	return out
}

// Close is a no-op.
func (m *Memory) Close() {}
