package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the connection pool behind the article archive.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Postgres writes article records into Postgres.
type Postgres struct {
	pool  execCloser
	table string
}

// NewPostgres connects a pool per the config.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("archive.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "articles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{pool: pool, table: table}, nil
}

// NewPostgresWithPool constructs a store from an existing pool, primarily for
// testing.
func NewPostgresWithPool(pool execCloser, table string) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "articles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Postgres{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *Postgres) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveArticle inserts one article row.
func (s *Postgres) SaveArticle(ctx context.Context, rec ArticleRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("article store is not configured")
	}
	if rec.ID == "" {
		return fmt.Errorf("article id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	run_id,
	keyword,
	title,
	url,
	source,
	category,
	score,
	published_at,
	scraped_at,
	degraded
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`, s.table)

	args := []any{
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
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}
