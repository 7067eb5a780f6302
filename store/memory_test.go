package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mouguu/reddit-crawler/types"
)

func post(id string) *types.FetchResult {
	return &types.FetchResult{
		Post:   types.PostMeta{ID: id, Title: "t-" + id, Subreddit: "golang"},
		Status: types.FetchSuccess,
	}
}

func TestMemory_SaveIsIdempotentPerID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Save(ctx, post("a")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := m.Save(ctx, post("a")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second save: got %v, want ErrDuplicate", err)
	}

	n, err := m.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("count = %d (%v), want 1", n, err)
	}
}

func TestMemory_ExistsBatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, id := range []string{"a", "b"} {
		if err := m.Save(ctx, post(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	got, err := m.ExistsBatch(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("ExistsBatch: %v", err)
	}
	if !got["a"] || !got["b"] || got["c"] {
		t.Errorf("ExistsBatch = %v", got)
	}
}

func TestMemory_SaveBatchSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Save(ctx, post("a")); err != nil {
		t.Fatal(err)
	}

	saved, err := m.SaveBatch(ctx, []*types.FetchResult{post("a"), post("b"), post("c")})
	if err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if saved != 2 {
		t.Errorf("saved = %d, want 2", saved)
	}
}

func TestMemory_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, id := range []string{"a", "b", "c"} {
		if err := m.Save(ctx, post(id)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].Post.ID != "c" || got[1].Post.ID != "b" {
		t.Errorf("Recent = %v", got)
	}

	all, err := m.Recent(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Errorf("Recent(0) = %d items (%v), want 3", len(all), err)
	}
}
