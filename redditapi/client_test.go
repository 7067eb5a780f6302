package redditapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mouguu/reddit-crawler/config"
	"github.com/mouguu/reddit-crawler/ratelimit"
	"github.com/mouguu/reddit-crawler/session"
)

// fastRate keeps test sleeps in the low milliseconds.
func fastRate() config.RateConfig {
	return config.RateConfig{
		BaseDelay:           config.Duration{Duration: time.Millisecond},
		MinDelay:            config.Duration{Duration: time.Millisecond},
		MaxDelay:            config.Duration{Duration: 5 * time.Millisecond},
		RecentFailureWindow: config.Duration{Duration: time.Millisecond},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *ratelimit.Controller) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rc := ratelimit.NewController(fastRate())
	c := NewClient(rc, session.NewManager(), WithBaseURL(srv.URL))
	return c, rc
}

func TestListing_ParsesPage(t *testing.T) {
	var gotPath, gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"kind": "Listing",
			"data": {
				"after": "t3_cursor",
				"children": [
					{"kind": "t3", "data": {"id": "abc", "permalink": "/r/golang/comments/abc/first/"}},
					{"kind": "t3", "data": {"id": "", "permalink": "/r/golang/comments/bad/"}},
					{"kind": "t3", "data": {"id": "def", "permalink": "/r/golang/comments/def/second/"}}
				]
			}
		}`))
	})

	page, err := c.Listing(context.Background(), ListingRequest{
		Target: "golang",
		Sort:   "hot",
		After:  "t3_prev",
		Limit:  50,
	})
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}

	if gotPath != "/r/golang/hot.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "after=t3_prev&limit=50" {
		t.Errorf("query = %q", gotQuery)
	}
	if page.After != "t3_cursor" {
		t.Errorf("after = %q", page.After)
	}
	// The entry without an id is skipped, not fatal.
	if len(page.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(page.Candidates))
	}
	if page.Candidates[0].ID != "abc" || page.Candidates[1].ID != "def" {
		t.Errorf("candidate order: %+v", page.Candidates)
	}
	if want := DefaultBaseURL + "/r/golang/comments/abc/first/"; page.Candidates[0].URL != want {
		t.Errorf("candidate URL = %q, want %q", page.Candidates[0].URL, want)
	}
}

func TestSearch_RestrictsToCommunity(t *testing.T) {
	var got map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{
			"path":        r.URL.Path,
			"q":           r.URL.Query().Get("q"),
			"restrict_sr": r.URL.Query().Get("restrict_sr"),
			"t":           r.URL.Query().Get("t"),
			"sort":        r.URL.Query().Get("sort"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind": "Listing", "data": {"after": "", "children": []}}`))
	})

	page, err := c.Search(context.Background(), SearchRequest{Target: "golang", Query: "generics"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Candidates) != 0 || page.After != "" {
		t.Errorf("expected empty exhausted page, got %+v", page)
	}
	if got["path"] != "/r/golang/search.json" {
		t.Errorf("path = %q", got["path"])
	}
	if got["q"] != "generics" || got["restrict_sr"] != "1" {
		t.Errorf("query params: %v", got)
	}
	if got["sort"] != "relevance" || got["t"] != "all" {
		t.Errorf("defaults not applied: %v", got)
	}
}

func TestGet_StatusTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		ct     string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "429 maps to rate limited",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrRateLimited) {
					t.Errorf("got %v, want ErrRateLimited", err)
				}
			},
		},
		{
			name:   "403 maps to blocked",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrBlocked) {
					t.Errorf("got %v, want ErrBlocked", err)
				}
			},
		},
		{
			name:   "unexpected status carries the code",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var se *StatusError
				if !errors.As(err, &se) {
					t.Fatalf("got %T, want *StatusError", err)
				}
				if se.Code != http.StatusBadGateway {
					t.Errorf("code = %d", se.Code)
				}
			},
		},
		{
			name:   "html body is a parse error",
			status: http.StatusOK,
			ct:     "text/html",
			body:   "<html>blocked</html>",
			check: func(t *testing.T, err error) {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Errorf("got %T, want *ParseError", err)
				}
			},
		},
		{
			name:   "truncated json is a parse error",
			status: http.StatusOK,
			ct:     "application/json",
			body:   `{"kind": "Listing", "data": {`,
			check: func(t *testing.T, err error) {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Errorf("got %T, want *ParseError", err)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tc.ct != "" {
					w.Header().Set("Content-Type", tc.ct)
				}
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := c.Listing(context.Background(), ListingRequest{Target: "golang", Sort: "hot"})
			if err == nil {
				t.Fatal("expected an error")
			}
			tc.check(t, err)
		})
	}
}

func TestGet_RecordsOutcomes(t *testing.T) {
	status := http.StatusTooManyRequests
	c, rc := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if status == http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"kind": "Listing", "data": {"after": "", "children": []}}`))
			return
		}
		w.WriteHeader(status)
	})

	_, err := c.Listing(context.Background(), ListingRequest{Target: "golang", Sort: "hot"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("got %v", err)
	}
	if snap := rc.Snapshot(); snap.ConsecutiveFailures != 1 {
		t.Errorf("consecutive failures = %d, want 1", snap.ConsecutiveFailures)
	}

	status = http.StatusOK
	if _, err := c.Listing(context.Background(), ListingRequest{Target: "golang", Sort: "hot"}); err != nil {
		t.Fatalf("Listing after recovery: %v", err)
	}
	snap := rc.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.SuccessfulRequests != 1 {
		t.Errorf("snapshot after success: %+v", snap)
	}
}

func TestGet_StampsSessionHeaders(t *testing.T) {
	var ua, accept string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind": "Listing", "data": {"after": "", "children": []}}`))
	})

	if _, err := c.Listing(context.Background(), ListingRequest{Target: "golang", Sort: "new"}); err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if ua == "" {
		t.Error("request left without a User-Agent")
	}
	if accept != "application/json" {
		t.Errorf("Accept = %q", accept)
	}
}

func TestGet_ContextCancellation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"kind": "Listing", "data": {"after": "", "children": []}}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Listing(ctx, ListingRequest{Target: "golang", Sort: "hot"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
