package strategy

import (
	"context"

	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/redditapi"
	"github.com/mouguu/reddit-crawler/types"
)

// Paginated walks one sort mode via cursor pagination.
type Paginated struct {
	client   Client
	logger   *log.Logger
	sort     types.SortMode
	time     types.TimeFilter
	maxPages int
}

// NewPaginated creates a paginated listing walk over one sort mode.
// time may be empty for sorts that are not time-ranked; maxPages <= 0
// uses the default page budget.
func NewPaginated(c Client, logger *log.Logger, sort types.SortMode, time types.TimeFilter, maxPages int) *Paginated {
	return &Paginated{client: c, logger: logger, sort: sort, time: time, maxPages: maxPages}
}

func (p *Paginated) Name() string { return "paginated_" + string(p.sort) }

func (p *Paginated) Fetch(ctx context.Context, target string, max int) ([]types.CandidateRef, error) {
	seen := make(map[string]struct{}, max)
	return collectPages(ctx, p.client, p.logger, redditapi.ListingRequest{
		Target: target,
		Sort:   p.sort,
		Time:   p.time,
	}, max, p.maxPages, seen)
}
