// Package strategy implements the candidate retrieval strategies.
//
// A strategy queries the remote listing or search surface along one
// axis (sort mode, time filter, keyword, alternate client) and returns
// an ordered list of candidate refs. Strategies run sequentially, never
// against each other: they share a single rate controller and session,
// and parallel strategies would defeat its backoff signal.
//
// Shared edge policy: a malformed item is skipped, a failed page ends
// the current configuration but keeps what was collected, and a run of
// consecutive configuration failures ends the strategy gracefully with
// whatever it has.
package strategy

import (
	"context"
	"errors"

	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/redditapi"
	"github.com/mouguu/reddit-crawler/types"
)

// Client is the API surface strategies consume. Satisfied by
// *redditapi.Client; faked in tests.
type Client interface {
	Listing(ctx context.Context, req redditapi.ListingRequest) (*redditapi.Page, error)
	Search(ctx context.Context, req redditapi.SearchRequest) (*redditapi.Page, error)
	BackoffAfterRateLimit(ctx context.Context) error
	ShouldSkipStrategy() bool
}

// Strategy produces candidates for one target, bounded by max.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, target string, max int) ([]types.CandidateRef, error)
}

// defaultMaxPages bounds the cursor walk of a standard listing.
const defaultMaxPages = 10

// maxConfigFailures is the consecutive-failure bound after which a
// multi-configuration strategy ends gracefully.
const maxConfigFailures = 3

// listingFor builds the request for a basic sort walk, widening the
// time filter for time-ranked sorts.
func listingFor(target string, sort types.SortMode) redditapi.ListingRequest {
	req := redditapi.ListingRequest{Target: target, Sort: sort}
	if sort == types.SortTop {
		req.Time = types.TimeAll
	}
	return req
}

// collectPages walks one listing configuration via cursor pagination,
// appending unseen candidates until max is reached, the cursor runs
// out, a short page signals end-of-results, or the page budget is
// spent. A 429 retries the same page once after the shared backoff. A
// 403 aborts with the error so callers can trigger fallback. Any other
// page failure ends the walk, keeping what was collected; the error is
// surfaced only when nothing was collected at all.
func collectPages(ctx context.Context, c Client, logger *log.Logger, req redditapi.ListingRequest, max, maxPages int, seen map[string]struct{}) ([]types.CandidateRef, error) {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if req.Limit <= 0 {
		req.Limit = redditapi.PageSize
	}

	var out []types.CandidateRef
	for page := 0; page < maxPages && len(out) < max; page++ {
		if c.ShouldSkipStrategy() {
			logger.Warn("strategy skip signal, ending walk", map[string]any{
				"target": req.Target, "sort": string(req.Sort), "collected": len(out),
			})
			return out, nil
		}

		p, err := c.Listing(ctx, req)
		if errors.Is(err, redditapi.ErrRateLimited) {
			if berr := c.BackoffAfterRateLimit(ctx); berr != nil {
				return out, berr
			}
			p, err = c.Listing(ctx, req)
		}
		switch {
		case err == nil:
		case errors.Is(err, redditapi.ErrBlocked):
			return out, err
		case ctx.Err() != nil:
			return out, ctx.Err()
		default:
			logger.Warn("page failed, ending walk", map[string]any{
				"target": req.Target, "sort": string(req.Sort), "error": err.Error(),
			})
			if len(out) == 0 {
				return nil, err
			}
			return out, nil
		}

		got := len(p.Candidates)
		for _, cand := range types.DedupCandidates(p.Candidates, seen) {
			out = append(out, cand)
			if len(out) >= max {
				break
			}
		}

		if p.After == "" || got < req.Limit {
			break
		}
		req.After = p.After
	}
	return out, nil
}
