// Package store persists fetched posts and answers the existence
// checks the dedup filter runs before fetching.
//
// Saves are idempotent per post id: every backend reports an
// already-stored id as ErrDuplicate, which callers treat as success.
// The existence check is batched so the persisted corpus never has to
// be loaded into memory.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mouguu/reddit-crawler/config"
	"github.com/mouguu/reddit-crawler/types"
)

// ErrDuplicate reports that the post id is already persisted. Callers
// treat it as success: the item is there, which is all a save promises.
var ErrDuplicate = errors.New("post already stored")

// Store is the persistence surface consumed by the crawl engine.
type Store interface {
	// Exists reports whether the post id is persisted.
	Exists(ctx context.Context, id string) (bool, error)
	// ExistsBatch reports which of the given ids are persisted.
	ExistsBatch(ctx context.Context, ids []string) (map[string]bool, error)
	// Save persists one fetched post. Returns ErrDuplicate when the id
	// is already there.
	Save(ctx context.Context, item *types.FetchResult) error
	// SaveBatch persists several posts, returning the count of newly
	// stored items. Duplicates are skipped, not errors.
	SaveBatch(ctx context.Context, items []*types.FetchResult) (int, error)
	// Count returns the number of persisted posts.
	Count(ctx context.Context) (int64, error)
	// Recent returns up to limit posts, most recently stored first.
	// limit <= 0 returns everything.
	Recent(ctx context.Context, limit int) ([]*types.FetchResult, error)
	Close() error
}

// Open constructs the backend named by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
