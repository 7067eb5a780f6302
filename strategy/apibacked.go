package strategy

import (
	"context"

	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/types"
)

// ExternalClient is an alternate, authenticated API client capable of
// answering sort/time queries in one pass without the public listing
// endpoint's throttling profile. Optional; nil disables the strategy's
// primary path.
type ExternalClient interface {
	Posts(ctx context.Context, target string, sort types.SortMode, time types.TimeFilter, limit int) ([]types.CandidateRef, error)
}

// externalConfigs is the sweep the authenticated client runs in one
// pass.
var externalConfigs = []deepConfig{
	{types.SortHot, ""},
	{types.SortNew, ""},
	{types.SortTop, types.TimeAll},
	{types.SortTop, types.TimeYear},
	{types.SortTop, types.TimeMonth},
}

// fallbackSorts are the basic modes walked when the external client is
// absent or fails outright.
var fallbackSorts = []types.SortMode{types.SortHot, types.SortNew, types.SortTop}

// APIBacked queries an authenticated external client across several
// sort/time combinations in one pass. On total failure it falls back to
// paginated walks over the basic sort modes; the fallback is invisible
// to the orchestrator, which sees the same return contract either way.
type APIBacked struct {
	external ExternalClient
	client   Client
	logger   *log.Logger
}

// NewAPIBacked creates the capability-gated strategy. external may be
// nil, in which case every Fetch takes the fallback path.
func NewAPIBacked(external ExternalClient, c Client, logger *log.Logger) *APIBacked {
	return &APIBacked{external: external, client: c, logger: logger}
}

func (a *APIBacked) Name() string { return "api_backed" }

func (a *APIBacked) Fetch(ctx context.Context, target string, max int) ([]types.CandidateRef, error) {
	if a.external != nil {
		out, err := a.fetchExternal(ctx, target, max)
		if err == nil {
			return out, nil
		}
		a.logger.Warn("external client failed, falling back to listing walks", map[string]any{
			"target": target, "error": err.Error(),
		})
	}
	return a.fetchFallback(ctx, target, max)
}

// fetchExternal runs the full sweep on the authenticated client. Any
// configuration error fails the whole sweep; partial external results
// are discarded in favor of the fallback, which keeps the two paths'
// semantics identical from the caller's view.
func (a *APIBacked) fetchExternal(ctx context.Context, target string, max int) ([]types.CandidateRef, error) {
	quota := max / len(externalConfigs)
	if quota < 1 {
		quota = 1
	}

	seen := make(map[string]struct{}, max)
	var out []types.CandidateRef
	for _, cfg := range externalConfigs {
		if len(out) >= max {
			break
		}
		got, err := a.external.Posts(ctx, target, cfg.sort, cfg.time, quota)
		if err != nil {
			return nil, err
		}
		for _, cand := range types.DedupCandidates(got, seen) {
			if len(out) >= max {
				break
			}
			out = append(out, cand)
		}
	}
	return out, nil
}

func (a *APIBacked) fetchFallback(ctx context.Context, target string, max int) ([]types.CandidateRef, error) {
	quota := max / len(fallbackSorts)
	if quota < 1 {
		quota = 1
	}

	seen := make(map[string]struct{}, max)
	var out []types.CandidateRef
	for _, sort := range fallbackSorts {
		if len(out) >= max {
			break
		}
		got, err := collectPages(ctx, a.client, a.logger, listingFor(target, sort), quota, defaultMaxPages, seen)
		out = append(out, got...)
		if err != nil {
			return out, err
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}
