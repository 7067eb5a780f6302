package redditapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mouguu/reddit-crawler/types"
)

// thing is the kind-tagged envelope every API object arrives in.
type thing struct {
	Kind string          `json:"kind"`
	Data listingChildren `json:"data"`
}

type listingChildren struct {
	Children []child `json:"children"`
	After    string  `json:"after"`
}

// child is one listing entry. Only the fields the crawl needs are
// decoded; the rest of the payload is ignored at this stage.
type child struct {
	Kind string    `json:"kind"`
	Data childData `json:"data"`
}

type childData struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink"`
}

// Page is one page of candidate references plus the cursor to the next.
// An empty After means the listing is exhausted.
type Page struct {
	Candidates []types.CandidateRef
	After      string
}

// ListingRequest identifies one listing page.
type ListingRequest struct {
	// Target is the community name, without the r/ prefix.
	Target string
	Sort   types.SortMode
	// Time narrows time-ranked sorts; empty omits the t= parameter.
	Time types.TimeFilter
	// After is the pagination cursor from the previous page.
	After string
	// Limit caps the page size; 0 means PageSize.
	Limit int
}

// Listing fetches one page of a sorted community listing.
func (c *Client) Listing(ctx context.Context, req ListingRequest) (*Page, error) {
	limit := req.Limit
	if limit <= 0 || limit > PageSize {
		limit = PageSize
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if req.Time != "" {
		q.Set("t", string(req.Time))
	}
	if req.After != "" {
		q.Set("after", req.After)
	}

	var body thing
	u := c.buildURL("/r/"+req.Target+"/"+string(req.Sort)+".json", q)
	if err := c.get(ctx, u, false, &body); err != nil {
		return nil, err
	}
	return pageFrom(u, body)
}

// SearchRequest identifies one search page.
type SearchRequest struct {
	Target string
	Query  string
	// Sort defaults to relevance.
	Sort string
	// Time defaults to all.
	Time types.TimeFilter
	// Limit caps the page size; 0 means PageSize.
	Limit int
}

// Search fetches one page of community-restricted search results.
// Search endpoints run at the controller's widened search delay.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*Page, error) {
	limit := req.Limit
	if limit <= 0 || limit > PageSize {
		limit = PageSize
	}
	sort := req.Sort
	if sort == "" {
		sort = "relevance"
	}
	tf := req.Time
	if tf == "" {
		tf = types.TimeAll
	}
	q := url.Values{
		"q":           {req.Query},
		"sort":        {sort},
		"limit":       {strconv.Itoa(limit)},
		"restrict_sr": {"1"},
		"t":           {string(tf)},
	}

	var body thing
	u := c.buildURL("/r/"+req.Target+"/search.json", q)
	if err := c.get(ctx, u, true, &body); err != nil {
		return nil, err
	}
	return pageFrom(u, body)
}

// pageFrom converts a decoded listing into candidate refs. Entries
// without an id or permalink are skipped, never fatal: a single
// malformed item must not sink the page.
func pageFrom(u string, body thing) (*Page, error) {
	if body.Kind != "Listing" {
		return nil, &ParseError{URL: u, Reason: "missing listing envelope"}
	}
	page := &Page{After: body.Data.After}
	for _, ch := range body.Data.Children {
		if ch.Data.ID == "" || ch.Data.Permalink == "" {
			continue
		}
		page.Candidates = append(page.Candidates, types.CandidateRef{
			ID:  ch.Data.ID,
			URL: DefaultBaseURL + ch.Data.Permalink,
		})
	}
	return page, nil
}
