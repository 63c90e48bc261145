package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const pagesSchema = `
CREATE TABLE IF NOT EXISTS pages (
	address        TEXT NOT NULL,
	run_id         TEXT NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	word_count     INTEGER NOT NULL DEFAULT 0,
	author         TEXT NOT NULL DEFAULT '',
	site_name      TEXT NOT NULL DEFAULT '',
	published_time TEXT NOT NULL DEFAULT '',
	depth          INTEGER NOT NULL DEFAULT 0,
	fetched_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, address)
);
CREATE TABLE IF NOT EXISTS page_chunks (
	address     TEXT NOT NULL,
	run_id      TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	content     TEXT NOT NULL,
	PRIMARY KEY (run_id, address, chunk_index)
);`

// PostgresStore persists records into PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, pagesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// SavePage upserts the page and replaces its chunks in one transaction.
func (s *PostgresStore) SavePage(ctx context.Context, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pages (address, run_id, title, content, word_count, author, site_name, published_time, depth, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, address) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			word_count = EXCLUDED.word_count,
			author = EXCLUDED.author,
			site_name = EXCLUDED.site_name,
			published_time = EXCLUDED.published_time,
			depth = EXCLUDED.depth,
			fetched_at = EXCLUDED.fetched_at`,
		rec.Page.Address, rec.RunID, rec.Page.Title, rec.Page.Content,
		rec.Page.WordCount, rec.Page.Author, rec.Page.SiteName,
		rec.Page.PublishedTime, rec.Page.Depth, rec.Page.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM page_chunks WHERE run_id = $1 AND address = $2`,
		rec.RunID, rec.Page.Address,
	); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	for i, chunk := range rec.Chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO page_chunks (address, run_id, chunk_index, content) VALUES ($1, $2, $3, $4)`,
			rec.Page.Address, rec.RunID, i, chunk,
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
