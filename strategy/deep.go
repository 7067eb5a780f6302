package strategy

import (
	"context"
	"errors"

	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/redditapi"
	"github.com/mouguu/reddit-crawler/types"
)

// deepMaxPages is the page budget per configuration. Deeper than the
// standard walk: this strategy exists to reach content the primary
// strategies never page far enough to see.
const deepMaxPages = 20

// deepConfig is one sort/time coordinate of the historical sweep.
type deepConfig struct {
	sort types.SortMode
	time types.TimeFilter
}

// deepConfigs covers the rarer rankings over wide windows. Gilded has
// no time axis; not every target supports it, so failures there are
// tolerated like any configuration failure.
var deepConfigs = []deepConfig{
	{types.SortTop, types.TimeAll},
	{types.SortTop, types.TimeYear},
	{types.SortControversial, types.TimeAll},
	{types.SortControversial, types.TimeYear},
	{types.SortControversial, types.TimeMonth},
	{types.SortGilded, ""},
}

// DeepHistorical sweeps the sort x time cross product of less-common
// rankings with a deeper page cap, reaching older or rarer-sorted
// content.
type DeepHistorical struct {
	client Client
	logger *log.Logger
}

// NewDeepHistorical creates the historical mining sweep.
func NewDeepHistorical(c Client, logger *log.Logger) *DeepHistorical {
	return &DeepHistorical{client: c, logger: logger}
}

func (d *DeepHistorical) Name() string { return "deep_historical" }

func (d *DeepHistorical) Fetch(ctx context.Context, target string, max int) ([]types.CandidateRef, error) {
	quota := max / len(deepConfigs)
	if quota < 1 {
		quota = 1
	}

	seen := make(map[string]struct{}, max)
	var out []types.CandidateRef
	failures := 0

	for _, cfg := range deepConfigs {
		if len(out) >= max {
			break
		}
		if d.client.ShouldSkipStrategy() {
			return out, nil
		}

		got, err := collectPages(ctx, d.client, d.logger, redditapi.ListingRequest{
			Target: target,
			Sort:   cfg.sort,
			Time:   cfg.time,
		}, quota, deepMaxPages, seen)
		out = append(out, got...)

		switch {
		case err == nil:
			failures = 0
		case errors.Is(err, redditapi.ErrBlocked):
			return out, err
		case ctx.Err() != nil:
			return out, ctx.Err()
		default:
			failures++
			d.logger.Warn("historical configuration failed", map[string]any{
				"target": target, "sort": string(cfg.sort), "t": string(cfg.time),
				"error": err.Error(),
			})
			if failures >= maxConfigFailures {
				return out, nil
			}
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}
