package crawler

import (
	"context"
	"fmt"

	"github.com/mouguu/reddit-crawler/types"
)

// Exister is the store surface dedup needs.
type Exister interface {
	ExistsBatch(ctx context.Context, ids []string) (map[string]bool, error)
}

// DedupFilter drops candidates already persisted, checking the store in
// batches to keep query sizes bounded.
type DedupFilter struct {
	store     Exister
	batchSize int
}

// NewDedupFilter builds a filter over the given store. batchSize <= 0
// falls back to 100.
func NewDedupFilter(store Exister, batchSize int) *DedupFilter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &DedupFilter{store: store, batchSize: batchSize}
}

// FilterNew returns the candidates not yet in the store, preserving
// input order. A store error aborts: proceeding without the check would
// refetch the whole backlog.
func (d *DedupFilter) FilterNew(ctx context.Context, candidates []types.CandidateRef) ([]types.CandidateRef, error) {
	out := make([]types.CandidateRef, 0, len(candidates))
	for start := 0; start < len(candidates); start += d.batchSize {
		end := start + d.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		ids := make([]string, len(batch))
		for i, c := range batch {
			ids[i] = c.ID
		}
		existing, err := d.store.ExistsBatch(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("existence check (batch %d-%d): %w", start, end, err)
		}
		for _, c := range batch {
			if !existing[c.ID] {
				out = append(out, c)
			}
		}
	}
	return out, nil
}
