package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mouguu/reddit-crawler/config"
	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/metrics"
	"github.com/mouguu/reddit-crawler/redditapi"
	"github.com/mouguu/reddit-crawler/store"
	"github.com/mouguu/reddit-crawler/types"
)

// Fetcher is the client surface the fetch stage consumes: the detail
// fetch plus the shared rate-limit backoff.
type Fetcher interface {
	PostDetail(ctx context.Context, url string) (*types.FetchResult, error)
	BackoffAfterRateLimit(ctx context.Context) error
}

// Outcome is the accounting of one fetch stage run.
type Outcome struct {
	// Scraped is the count of posts fetched and persisted.
	Scraped int
	// Errored is the count of tasks that failed or timed out.
	Errored int
	// Unscheduled is the count of candidates never attempted because
	// the stage stopped early (target reached or context canceled).
	Unscheduled int
}

// taskState is the terminal state of one fetch task.
type taskState int

const (
	taskOK taskState = iota
	taskFailed
	taskCanceled
)

// FetchExecutor runs detail fetches over a bounded worker pool. Tasks
// are independent: each gets its own deadline, and one failure never
// affects another. A single owner goroutine aggregates results, so the
// counters need no locking.
type FetchExecutor struct {
	fetcher  Fetcher
	store    store.Store
	cfg      config.ExecutorConfig
	logger   *log.Logger
	metrics  *metrics.Collector
	progress ProgressFunc

	// archiveFn, when set, receives each successfully fetched item
	// after persistence.
	archiveFn func(ctx context.Context, item *types.FetchResult)
}

// NewFetchExecutor builds the fetch stage. Zero config values fall back
// to the executor defaults.
func NewFetchExecutor(fetcher Fetcher, st store.Store, cfg config.ExecutorConfig, logger *log.Logger, m *metrics.Collector, progress ProgressFunc) *FetchExecutor {
	def := config.DefaultExecutor()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.TaskTimeout.Duration <= 0 {
		cfg.TaskTimeout = def.TaskTimeout
	}
	if cfg.SaveRetries < 0 {
		cfg.SaveRetries = def.SaveRetries
	}
	if cfg.SaveBackoffStep.Duration <= 0 {
		cfg.SaveBackoffStep = def.SaveBackoffStep
	}
	return &FetchExecutor{
		fetcher:  fetcher,
		store:    st,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		progress: progress,
	}
}

// Execute fetches and persists candidates until the list is exhausted,
// target successes land, or the context is canceled. Candidates beyond
// the stop point are never attempted and count as unscheduled. In-flight
// tasks at the stop point run to completion and are counted normally.
func (e *FetchExecutor) Execute(ctx context.Context, candidates []types.CandidateRef, target int) Outcome {
	if len(candidates) == 0 {
		return Outcome{}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan types.CandidateRef)
	results := make(chan taskState)

	go func() {
		defer close(tasks)
		for _, cand := range candidates {
			select {
			case tasks <- cand:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range e.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cand := range tasks {
				results <- e.fetchOne(ctx, cand)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var out Outcome
	completed := 0
	for state := range results {
		completed++
		switch state {
		case taskOK:
			out.Scraped++
		case taskFailed:
			out.Errored++
		}
		e.progress.report(completed, len(candidates), "fetching posts")
		if out.Scraped >= target {
			cancel()
		}
	}
	out.Unscheduled = len(candidates) - completed
	return out
}

// fetchOne runs a single detail fetch under its own deadline, persists
// the result, and hands it to the archive hook. A rate-limited fetch
// waits out the shared backoff and retries once; every other failure is
// terminal for the item.
func (e *FetchExecutor) fetchOne(ctx context.Context, cand types.CandidateRef) taskState {
	tctx, cancel := context.WithTimeout(ctx, e.cfg.TaskTimeout.Duration)
	defer cancel()

	item, err := e.fetcher.PostDetail(tctx, cand.URL)
	if errors.Is(err, redditapi.ErrRateLimited) {
		if berr := e.fetcher.BackoffAfterRateLimit(tctx); berr == nil {
			item, err = e.fetcher.PostDetail(tctx, cand.URL)
		}
	}
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return taskCanceled
		case errors.Is(err, context.DeadlineExceeded):
			e.metrics.IncFetchTimeout()
			e.logger.Warn("detail fetch timed out", map[string]any{"post": cand.ID})
			return taskFailed
		default:
			e.metrics.IncFetchError()
			e.logger.Warn("detail fetch failed", map[string]any{
				"post": cand.ID, "error": err.Error(),
			})
			return taskFailed
		}
	}
	item.Status = types.FetchSuccess
	e.metrics.IncFetchSuccess()

	if err := e.save(ctx, item); err != nil {
		e.logger.Error("save failed after retries", map[string]any{
			"post": item.Post.ID, "error": err.Error(),
		})
		return taskFailed
	}
	if e.archiveFn != nil {
		e.archiveFn(ctx, item)
	}
	return taskOK
}

// save persists one item with linear backoff between attempts. An
// already-stored id is success: the item is there.
func (e *FetchExecutor) save(ctx context.Context, item *types.FetchResult) error {
	var lastErr error
	for attempt := 0; attempt <= e.cfg.SaveRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * e.cfg.SaveBackoffStep.Duration
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := e.store.Save(ctx, item)
		switch {
		case err == nil:
			e.metrics.IncSaveNew()
			return nil
		case errors.Is(err, store.ErrDuplicate):
			e.metrics.IncSaveDuplicate()
			return nil
		default:
			lastErr = err
		}
	}
	e.metrics.IncSaveFailure()
	return lastErr
}
