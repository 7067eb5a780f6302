package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mouguu/reddit-crawler/types"
)

const sqliteSchema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;

CREATE TABLE IF NOT EXISTS posts (
    id           TEXT PRIMARY KEY,
    subreddit    TEXT NOT NULL,
    title        TEXT NOT NULL,
    author       TEXT,
    score        INTEGER NOT NULL DEFAULT 0,
    num_comments INTEGER NOT NULL DEFAULT 0,
    created_utc  REAL NOT NULL DEFAULT 0,
    scraped_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    payload      BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_subreddit ON posts(subreddit);
CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_utc);
CREATE INDEX IF NOT EXISTS idx_posts_score ON posts(score);
`

// SQLite is the embedded single-file backend, the default for local
// crawls. The full fetch result lives in the payload blob; the indexed
// columns exist for the stats command and ad hoc queries.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "reddit-crawler.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM posts WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", id, err)
	}
	return true, nil
}

func (s *SQLite) ExistsBatch(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM posts WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("exists batch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("exists batch scan: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (s *SQLite) Save(ctx context.Context, item *types.FetchResult) error {
	payload, err := encodePayload(item)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO posts
		(id, subreddit, title, author, score, num_comments, created_utc, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Post.ID, item.Post.Subreddit, item.Post.Title, item.Post.Author,
		item.Post.Score, item.Post.NumComments, item.Post.CreatedUTC, payload,
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", item.Post.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save %s: %w", item.Post.ID, err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *SQLite) SaveBatch(ctx context.Context, items []*types.FetchResult) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved := 0
	for _, item := range items {
		payload, err := encodePayload(item)
		if err != nil {
			return saved, err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO posts
			(id, subreddit, title, author, score, num_comments, created_utc, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.Post.ID, item.Post.Subreddit, item.Post.Title, item.Post.Author,
			item.Post.Score, item.Post.NumComments, item.Post.CreatedUTC, payload,
		)
		if err != nil {
			return saved, fmt.Errorf("save batch %s: %w", item.Post.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			saved++
		}
	}
	if err := tx.Commit(); err != nil {
		return saved, fmt.Errorf("save batch commit: %w", err)
	}
	return saved, nil
}

func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (s *SQLite) Recent(ctx context.Context, limit int) ([]*types.FetchResult, error) {
	q := "SELECT payload FROM posts ORDER BY scraped_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

// Get loads one stored item by id, or nil when absent.
func (s *SQLite) Get(ctx context.Context, id string) (*types.FetchResult, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM posts WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return decodePayload(payload)
}

func (s *SQLite) Close() error { return s.db.Close() }
