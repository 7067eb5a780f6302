// Package types defines the shared data model for the crawl engine.
package types

// CandidateRef identifies a not-yet-fetched post discovered by a
// retrieval strategy. Ephemeral: it lives only for the duration of one
// crawl invocation.
type CandidateRef struct {
	// ID is the remote post identifier (base-36, no kind prefix).
	ID string `json:"id"`
	// URL is the canonical permalink the detail fetch resolves.
	URL string `json:"url"`
}

// SortMode selects the listing ranking on the remote API.
type SortMode string

// Listing sort modes. Controversial and Gilded are rarer rankings used
// by deep historical mining; not every target supports them.
const (
	SortHot           SortMode = "hot"
	SortNew           SortMode = "new"
	SortRising        SortMode = "rising"
	SortBest          SortMode = "best"
	SortTop           SortMode = "top"
	SortControversial SortMode = "controversial"
	SortGilded        SortMode = "gilded"
)

// TimeFilter narrows time-ranked listings (the t= query parameter).
type TimeFilter string

// Time filters accepted by top/controversial listings.
const (
	TimeHour  TimeFilter = "hour"
	TimeDay   TimeFilter = "day"
	TimeWeek  TimeFilter = "week"
	TimeMonth TimeFilter = "month"
	TimeYear  TimeFilter = "year"
	TimeAll   TimeFilter = "all"
)

// DedupCandidates returns candidates with duplicate IDs removed,
// preserving first-seen order. The seen set is shared across calls when
// non-nil, allowing in-run dedup against earlier strategies.
func DedupCandidates(candidates []CandidateRef, seen map[string]struct{}) []CandidateRef {
	if seen == nil {
		seen = make(map[string]struct{}, len(candidates))
	}
	out := make([]CandidateRef, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
