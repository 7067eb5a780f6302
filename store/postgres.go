package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mouguu/reddit-crawler/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS posts (
    id           TEXT PRIMARY KEY,
    subreddit    TEXT NOT NULL,
    title        TEXT NOT NULL,
    author       TEXT,
    score        INTEGER NOT NULL DEFAULT 0,
    num_comments INTEGER NOT NULL DEFAULT 0,
    created_utc  DOUBLE PRECISION NOT NULL DEFAULT 0,
    scraped_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    payload      BYTEA NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_subreddit ON posts(subreddit);
CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_utc);
`

// Postgres is the shared-database backend for crawls feeding a hosted
// corpus. Inserts use ON CONFLICT DO NOTHING; an untouched row means
// the post was already there.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects with the given DSN and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", id, err)
	}
	return exists, nil
}

func (p *Postgres) ExistsBatch(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := p.pool.Query(ctx, "SELECT id FROM posts WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("exists batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("exists batch scan: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (p *Postgres) Save(ctx context.Context, item *types.FetchResult) error {
	payload, err := encodePayload(item)
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx, `
		INSERT INTO posts
		(id, subreddit, title, author, score, num_comments, created_utc, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		item.Post.ID, item.Post.Subreddit, item.Post.Title, item.Post.Author,
		item.Post.Score, item.Post.NumComments, item.Post.CreatedUTC, payload,
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", item.Post.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (p *Postgres) SaveBatch(ctx context.Context, items []*types.FetchResult) (int, error) {
	saved := 0
	for _, item := range items {
		switch err := p.Save(ctx, item); err {
		case nil:
			saved++
		case ErrDuplicate:
		default:
			return saved, err
		}
	}
	return saved, nil
}

func (p *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM posts").Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (p *Postgres) Recent(ctx context.Context, limit int) ([]*types.FetchResult, error) {
	q := "SELECT payload FROM posts ORDER BY scraped_at DESC"
	args := []any{}
	if limit > 0 {
		q += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	defer rows.Close()

	var out []*types.FetchResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("recent scan: %w", err)
		}
		item, err := decodePayload(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
