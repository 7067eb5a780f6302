package crawler

import (
	"context"
	"errors"
	"testing"
)

// fakeExister answers existence checks from a set and records the
// batch sizes it saw.
type fakeExister struct {
	existing   map[string]bool
	batchSizes []int
	err        error
}

func (f *fakeExister) ExistsBatch(_ context.Context, ids []string) (map[string]bool, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batchSizes = append(f.batchSizes, len(ids))
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = f.existing[id]
	}
	return out, nil
}

func TestFilterNew_DropsStoredPreservesOrder(t *testing.T) {
	ex := &fakeExister{existing: map[string]bool{"a001": true, "a003": true}}
	in := refs("a", 5)

	out, err := NewDedupFilter(ex, 100).FilterNew(t.Context(), in)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	want := []string{"a000", "a002", "a004"}
	if len(out) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(out), len(want))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("out[%d] = %q, want %q", i, out[i].ID, id)
		}
	}
}

func TestFilterNew_Batches(t *testing.T) {
	ex := &fakeExister{}
	if _, err := NewDedupFilter(ex, 2).FilterNew(t.Context(), refs("a", 5)); err != nil {
		t.Fatalf("filter: %v", err)
	}

	want := []int{2, 2, 1}
	if len(ex.batchSizes) != len(want) {
		t.Fatalf("batch sizes = %v, want %v", ex.batchSizes, want)
	}
	for i, n := range want {
		if ex.batchSizes[i] != n {
			t.Errorf("batch %d size = %d, want %d", i, ex.batchSizes[i], n)
		}
	}
}

func TestFilterNew_StoreErrorAborts(t *testing.T) {
	ex := &fakeExister{err: errors.New("connection reset")}
	if _, err := NewDedupFilter(ex, 100).FilterNew(t.Context(), refs("a", 3)); err == nil {
		t.Fatal("expected the store error to propagate")
	}
}

func TestFilterNew_Empty(t *testing.T) {
	out, err := NewDedupFilter(&fakeExister{}, 100).FilterNew(t.Context(), nil)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d candidates from empty input", len(out))
	}
}

func TestNewDedupFilter_DefaultBatchSize(t *testing.T) {
	d := NewDedupFilter(&fakeExister{}, 0)
	if d.batchSize != 100 {
		t.Errorf("batchSize = %d, want 100", d.batchSize)
	}
}

var _ Exister = (*fakeExister)(nil)
