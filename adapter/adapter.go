// Package adapter defines the downstream notification boundary.
//
// Adapters publish crawl completion events to downstream systems so a
// pipeline can react to fresh data without polling the store.
// Publishing is best-effort: the crawl result stands whether or not
// the notification lands.
package adapter

import (
	"context"
	"time"

	"github.com/mouguu/reddit-crawler/types"
)

// CrawlCompletedEvent is the payload published when a crawl run
// finishes.
type CrawlCompletedEvent struct {
	EventType       string `json:"event_type"` // always "crawl_completed"
	RunID           string `json:"run_id"`
	Target          string `json:"target"`
	Profile         string `json:"profile"`
	Scraped         int    `json:"scraped"`
	Skipped         int    `json:"skipped"`
	Errored         int    `json:"errored"`
	CandidatesFound int    `json:"candidates_found"`
	DurationMs      int64  `json:"duration_ms"`
	Timestamp       string `json:"timestamp"` // ISO 8601
}

// FromRunResult builds the completion event for a finished run.
func FromRunResult(res *types.RunResult) *CrawlCompletedEvent {
	return &CrawlCompletedEvent{
		EventType:       "crawl_completed",
		RunID:           res.RunID,
		Target:          res.Target,
		Profile:         res.Profile,
		Scraped:         res.Scraped,
		Skipped:         res.Skipped,
		Errored:         res.Errored,
		CandidatesFound: res.CandidatesFound,
		DurationMs:      res.Elapsed.Milliseconds(),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
}

// Adapter publishes crawl completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a completion event. Must respect context
	// cancellation and deadlines.
	Publish(ctx context.Context, event *CrawlCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
