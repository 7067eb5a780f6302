package crawler

import (
	"fmt"

	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/strategy"
	"github.com/mouguu/reddit-crawler/types"
)

// Profile names accepted by BuildStrategies.
const (
	ProfileFull       = "full"
	ProfilePopularity = "popularity"
	ProfileRecency    = "recency"
	ProfileSearch     = "search"
)

// Profiles lists the valid profile names.
func Profiles() []string {
	return []string{ProfileFull, ProfilePopularity, ProfileRecency, ProfileSearch}
}

// BuildStrategies maps a profile name to its ordered strategy sequence.
// Ordering is part of each profile's contract: earlier strategies get
// first claim on the candidate quota, so a profile leads with the
// surfaces most likely to serve its intent.
//
// The keyword strategy is included only when the vocabulary is
// non-empty, except under the search profile where an empty vocabulary
// is a configuration error.
func BuildStrategies(profile string, c strategy.Client, external strategy.ExternalClient, keywords []string, logger *log.Logger) ([]strategy.Strategy, error) {
	hasKeywords := len(keywords) > 0
	search := strategy.NewSearch(c, logger, keywords)

	switch profile {
	case ProfileFull, "":
		out := []strategy.Strategy{
			strategy.NewAPIBacked(external, c, logger),
			strategy.NewTimeRange(c, logger, types.SortTop),
			strategy.NewPaginated(c, logger, types.SortHot, "", 0),
			strategy.NewPaginated(c, logger, types.SortNew, "", 0),
			strategy.NewPaginated(c, logger, types.SortRising, "", 0),
			strategy.NewPaginated(c, logger, types.SortBest, "", 0),
			strategy.NewDeepHistorical(c, logger),
		}
		if hasKeywords {
			out = append(out, search)
		}
		return out, nil

	case ProfileRecency:
		out := []strategy.Strategy{
			strategy.NewDeepHistorical(c, logger),
			strategy.NewTimeRange(c, logger, types.SortTop),
			strategy.NewPaginated(c, logger, types.SortNew, "", 0),
			strategy.NewPaginated(c, logger, types.SortRising, "", 0),
		}
		if hasKeywords {
			out = append(out, search)
		}
		return out, nil

	case ProfilePopularity:
		out := []strategy.Strategy{
			strategy.NewPaginated(c, logger, types.SortHot, "", 0),
			strategy.NewPaginated(c, logger, types.SortBest, "", 0),
			strategy.NewTimeRange(c, logger, types.SortTop),
			strategy.NewDeepHistorical(c, logger),
		}
		if hasKeywords {
			out = append(out, search)
		}
		return out, nil

	case ProfileSearch:
		if !hasKeywords {
			return nil, fmt.Errorf("profile %q requires at least one keyword", profile)
		}
		return []strategy.Strategy{
			search,
			strategy.NewTimeRange(c, logger, types.SortTop),
			strategy.NewPaginated(c, logger, types.SortHot, "", 0),
			strategy.NewPaginated(c, logger, types.SortNew, "", 0),
			strategy.NewDeepHistorical(c, logger),
		}, nil

	default:
		return nil, fmt.Errorf("unknown profile %q (valid: %v)", profile, Profiles())
	}
}
