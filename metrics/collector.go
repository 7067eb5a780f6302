// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single crawl run. It is a
// leaf package with no internal dependencies. Request-level counters
// live in the rate controller's own snapshot; the collector covers the
// stages above it: candidate discovery, detail fetches, and saves.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of the run counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type Snapshot struct {
	// Candidate discovery
	CandidatesFound    int64
	CandidatesByOrigin map[string]int64

	// Detail fetches
	FetchSuccess int64
	FetchTimeout int64
	FetchError   int64

	// Persistence
	SavesNew       int64
	SavesDuplicate int64
	SaveFailures   int64

	// Archive sidecar writes
	ArchiveWrites   int64
	ArchiveFailures int64

	// Dimensions (informational, set at construction)
	RunID   string
	Target  string
	Profile string
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver
// safe so wiring a collector stays optional.
type Collector struct {
	mu sync.Mutex

	candidatesFound    int64
	candidatesByOrigin map[string]int64

	fetchSuccess int64
	fetchTimeout int64
	fetchError   int64

	savesNew       int64
	savesDuplicate int64
	saveFailures   int64

	archiveWrites   int64
	archiveFailures int64

	runID   string
	target  string
	profile string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(runID, target, profile string) *Collector {
	return &Collector{
		candidatesByOrigin: make(map[string]int64),
		runID:              runID,
		target:             target,
		profile:            profile,
	}
}

// AddCandidates records candidates contributed by one origin (a
// strategy name), counted after intra-run dedup.
func (c *Collector) AddCandidates(origin string, n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.candidatesFound += int64(n)
	c.candidatesByOrigin[origin] += int64(n)
	c.mu.Unlock()
}

// IncFetchSuccess records a completed detail fetch.
func (c *Collector) IncFetchSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchSuccess++
	c.mu.Unlock()
}

// IncFetchTimeout records a detail fetch abandoned on its task timeout.
func (c *Collector) IncFetchTimeout() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchTimeout++
	c.mu.Unlock()
}

// IncFetchError records a detail fetch that failed for any other
// reason.
func (c *Collector) IncFetchError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchError++
	c.mu.Unlock()
}

// IncSaveNew records a save that stored a new post.
func (c *Collector) IncSaveNew() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.savesNew++
	c.mu.Unlock()
}

// IncSaveDuplicate records a save answered by an already-stored id.
func (c *Collector) IncSaveDuplicate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.savesDuplicate++
	c.mu.Unlock()
}

// IncSaveFailure records a save that exhausted its retries.
func (c *Collector) IncSaveFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.saveFailures++
	c.mu.Unlock()
}

// IncArchiveWrite records a successful archive sidecar write.
func (c *Collector) IncArchiveWrite() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.archiveWrites++
	c.mu.Unlock()
}

// IncArchiveFailure records a failed archive sidecar write.
func (c *Collector) IncArchiveFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.archiveFailures++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all counters. The
// Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byOrigin := make(map[string]int64, len(c.candidatesByOrigin))
	for k, v := range c.candidatesByOrigin {
		byOrigin[k] = v
	}

	return Snapshot{
		CandidatesFound:    c.candidatesFound,
		CandidatesByOrigin: byOrigin,

		FetchSuccess: c.fetchSuccess,
		FetchTimeout: c.fetchTimeout,
		FetchError:   c.fetchError,

		SavesNew:       c.savesNew,
		SavesDuplicate: c.savesDuplicate,
		SaveFailures:   c.saveFailures,

		ArchiveWrites:   c.archiveWrites,
		ArchiveFailures: c.archiveFailures,

		RunID:   c.runID,
		Target:  c.target,
		Profile: c.profile,
	}
}
