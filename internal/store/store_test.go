package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func testRecord() ArticleRecord {
	now := time.Unix(1770000000, 0).UTC()
	return ArticleRecord{
		ID:          "0194f6d0-aaaa-7bbb-8ccc-1234567890ab",
		RunID:       "run-1",
		Keyword:     "artificial intelligence",
		Title:       "Model ships",
		URL:         "https://example.com/1",
		Source:      "Wire",
		Category:    "AI Development",
		Score:       0.92,
		PublishedAt: now.Add(-2 * time.Hour),
		ScrapedAt:   now,
		Degraded:    false,
	}
}

func TestPostgresSaveArticle(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresWithPool(mock, "articles")
	require.NoError(t, err)

	rec := testRecord()
	mock.ExpectExec("INSERT INTO articles").
		WithArgs(
			rec.ID,
			rec.RunID,
			rec.Keyword,
			rec.Title,
			rec.URL,
			rec.Source,
			rec.Category,
			rec.Score,
			rec.PublishedAt,
			rec.ScrapedAt,
			rec.Degraded,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveArticle(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveArticleRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresWithPool(mock, "articles")
	require.NoError(t, err)

	rec := testRecord()
	rec.ID = ""
	require.Error(t, s.SaveArticle(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRejectsBadTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresWithPool(mock, "articles; drop table users")
	require.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	rec := testRecord()
	require.NoError(t, m.SaveArticle(context.Background(), rec))

	got := m.Articles()
	require.Len(t, got, 1)
	require.Equal(t, rec, got[0])
}
