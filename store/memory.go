package store

import (
	"context"
	"sync"

	"github.com/mouguu/reddit-crawler/types"
)

// Memory is the in-process backend. Used by tests and dry runs; nothing
// survives the process.
type Memory struct {
	mu    sync.RWMutex
	items map[string]*types.FetchResult
	// order holds ids in insertion order so Recent can answer
	// newest-first.
	order []string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]*types.FetchResult)}
}

func (m *Memory) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[id]
	return ok, nil
}

func (m *Memory) ExistsBatch(_ context.Context, ids []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *Memory) Save(_ context.Context, item *types.FetchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.Post.ID]; ok {
		return ErrDuplicate
	}
	m.items[item.Post.ID] = item
	m.order = append(m.order, item.Post.ID)
	return nil
}

func (m *Memory) SaveBatch(ctx context.Context, items []*types.FetchResult) (int, error) {
	saved := 0
	for _, item := range items {
		switch err := m.Save(ctx, item); err {
		case nil:
			saved++
		case ErrDuplicate:
		default:
			return saved, err
		}
	}
	return saved, nil
}

func (m *Memory) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.items)), nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]*types.FetchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*types.FetchResult, 0, n)
	for i := len(m.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.items[m.order[i]])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

// Get returns the stored item, or nil. Test helper.
func (m *Memory) Get(id string) *types.FetchResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[id]
}
