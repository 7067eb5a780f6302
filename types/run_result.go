package types

import "time"

// StrategyGain records how many previously unseen candidates one
// strategy execution contributed. Retained only for the run's
// saturation decision and final accounting.
type StrategyGain struct {
	Strategy        string `json:"strategy"`
	CandidatesAdded int    `json:"candidates_added"`
}

// RunResult aggregates the accounting of one crawl invocation.
type RunResult struct {
	// RunID uniquely identifies this invocation.
	RunID string `json:"run_id"`
	// Target is the community or user the crawl was pointed at.
	Target string `json:"target"`
	// Profile names the strategy sequence that ran.
	Profile string `json:"profile"`
	// Scraped is the count of posts fetched and persisted.
	Scraped int `json:"scraped"`
	// Skipped is the count of candidates dropped as already persisted.
	Skipped int `json:"skipped"`
	// Errored is the count of fetch tasks that failed or timed out.
	Errored int `json:"errored"`
	// CandidatesFound is the merged, intra-run-deduplicated candidate count.
	CandidatesFound int `json:"candidates_found"`
	// CandidatesNew is the candidate count surviving the store dedup.
	CandidatesNew int `json:"candidates_new"`
	// Gains holds per-strategy contribution, in execution order.
	Gains []StrategyGain `json:"gains"`
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}
