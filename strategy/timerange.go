package strategy

import (
	"context"
	"errors"

	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/redditapi"
	"github.com/mouguu/reddit-crawler/types"
)

// timeSegments is the discrete filter ladder walked by TimeRange, most
// recent first.
var timeSegments = []types.TimeFilter{
	types.TimeHour, types.TimeDay, types.TimeWeek,
	types.TimeMonth, types.TimeYear, types.TimeAll,
}

// TimeRange repeats a paginated walk of one time-ranked sort once per
// discrete time filter, each segment with its own quota, merging with
// in-run dedup against segments already walked.
type TimeRange struct {
	client Client
	logger *log.Logger
	sort   types.SortMode
}

// NewTimeRange creates a time-segmented walk. sort should be a
// time-ranked mode; top is the usual choice.
func NewTimeRange(c Client, logger *log.Logger, sort types.SortMode) *TimeRange {
	return &TimeRange{client: c, logger: logger, sort: sort}
}

func (t *TimeRange) Name() string { return "time_range_" + string(t.sort) }

func (t *TimeRange) Fetch(ctx context.Context, target string, max int) ([]types.CandidateRef, error) {
	quota := max / len(timeSegments)
	if quota < 1 {
		quota = 1
	}

	seen := make(map[string]struct{}, max)
	var out []types.CandidateRef
	failures := 0

	for _, tf := range timeSegments {
		if len(out) >= max {
			break
		}
		if t.client.ShouldSkipStrategy() {
			return out, nil
		}

		got, err := collectPages(ctx, t.client, t.logger, redditapi.ListingRequest{
			Target: target,
			Sort:   t.sort,
			Time:   tf,
		}, quota, defaultMaxPages, seen)
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
			t.logger.Warn("time segment failed", map[string]any{
				"target": target, "t": string(tf), "error": err.Error(),
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
