package strategy

import (
	"context"
	"errors"

	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/redditapi"
	"github.com/mouguu/reddit-crawler/types"
)

// Search iterates a keyword vocabulary against the community search
// endpoint. Each keyword gets a bounded quota; results are deduplicated
// across keywords within the same invocation.
type Search struct {
	client   Client
	logger   *log.Logger
	keywords []string
}

// NewSearch creates a keyword search strategy over the given
// vocabulary.
func NewSearch(c Client, logger *log.Logger, keywords []string) *Search {
	return &Search{client: c, logger: logger, keywords: keywords}
}

func (s *Search) Name() string { return "keyword_search" }

func (s *Search) Fetch(ctx context.Context, target string, max int) ([]types.CandidateRef, error) {
	if len(s.keywords) == 0 {
		return nil, nil
	}
	quota := max / len(s.keywords)
	if quota < 1 {
		quota = 1
	}

	seen := make(map[string]struct{}, max)
	var out []types.CandidateRef
	failures := 0

	for _, kw := range s.keywords {
		if len(out) >= max {
			break
		}
		if s.client.ShouldSkipStrategy() {
			s.logger.Warn("strategy skip signal, aborting remaining keywords", map[string]any{
				"target": target, "collected": len(out),
			})
			break
		}

		page, err := s.client.Search(ctx, redditapi.SearchRequest{
			Target: target,
			Query:  kw,
			Limit:  quota,
		})
		if errors.Is(err, redditapi.ErrRateLimited) {
			if berr := s.client.BackoffAfterRateLimit(ctx); berr != nil {
				return out, berr
			}
			page, err = s.client.Search(ctx, redditapi.SearchRequest{
				Target: target,
				Query:  kw,
				Limit:  quota,
			})
		}
		switch {
		case err == nil:
			failures = 0
		case errors.Is(err, redditapi.ErrBlocked):
			return out, err
		case ctx.Err() != nil:
			return out, ctx.Err()
		default:
			failures++
			s.logger.Warn("keyword failed", map[string]any{
				"target": target, "keyword": kw, "error": err.Error(),
			})
			if failures >= maxConfigFailures {
				return out, nil
			}
			continue
		}

		added := 0
		for _, cand := range types.DedupCandidates(page.Candidates, seen) {
			if added >= quota || len(out) >= max {
				break
			}
			out = append(out, cand)
			added++
		}
	}
	return out, nil
}
