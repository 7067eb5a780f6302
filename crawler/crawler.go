// Package crawler runs a complete crawl: strategy orchestration,
// store-level dedup, and the concurrent fetch stage, with run-level
// accounting aggregated in one place.
//
// Stages run in order. Strategies execute sequentially on the control
// goroutine because they share one rate controller and session;
// parallel strategies would defeat the backoff signal. Only the fetch
// stage fans out, over a bounded worker pool.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mouguu/reddit-crawler/adapter"
	"github.com/mouguu/reddit-crawler/archive"
	"github.com/mouguu/reddit-crawler/config"
	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/metrics"
	"github.com/mouguu/reddit-crawler/store"
	"github.com/mouguu/reddit-crawler/strategy"
	"github.com/mouguu/reddit-crawler/types"
)

// APIClient is the remote API surface the crawl consumes: the strategy
// endpoints plus the detail fetch. Satisfied by *redditapi.Client.
type APIClient interface {
	strategy.Client
	PostDetail(ctx context.Context, url string) (*types.FetchResult, error)
}

// ProgressFunc reports (completed, total, message) after units of work.
// Optional and best-effort: a panicking sink is contained here and can
// never abort the crawl.
type ProgressFunc func(current, total int, message string)

func (f ProgressFunc) report(current, total int, message string) {
	if f == nil {
		return
	}
	defer func() { _ = recover() }()
	f(current, total, message)
}

// Params wires a Crawler. Config, Client, and Store are required; the
// rest defaults to disabled or discard.
type Params struct {
	Config *config.Config
	Client APIClient
	Store  store.Store

	// RunID identifies the run; empty draws a fresh one.
	RunID string
	// Target is how many successfully fetched posts the run wants.
	Target int

	// External enables the API-backed strategy's primary path.
	External strategy.ExternalClient
	// Archive receives raw post JSON. Nil disables archiving.
	Archive archive.Sink
	// Publisher is notified when the run completes. Nil disables it.
	Publisher adapter.Adapter

	Logger   *log.Logger
	Metrics  *metrics.Collector
	Progress ProgressFunc
}

// Crawler executes crawl runs.
type Crawler struct {
	cfg       *config.Config
	client    APIClient
	store     store.Store
	external  strategy.ExternalClient
	archive   archive.Sink
	publisher adapter.Adapter
	logger    *log.Logger
	metrics   *metrics.Collector
	progress  ProgressFunc

	runID  string
	target int
}

// New validates params and builds a Crawler.
func New(p Params) (*Crawler, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("crawler requires a config")
	}
	if p.Client == nil {
		return nil, fmt.Errorf("crawler requires an API client")
	}
	if p.Store == nil {
		return nil, fmt.Errorf("crawler requires a store")
	}
	if p.Target <= 0 {
		return nil, fmt.Errorf("target must be positive, got %d", p.Target)
	}
	if p.RunID == "" {
		p.RunID = uuid.New().String()
	}

	return &Crawler{
		cfg:       p.Config,
		client:    p.Client,
		store:     p.Store,
		external:  p.External,
		archive:   p.Archive,
		publisher: p.Publisher,
		logger:    p.Logger,
		metrics:   p.Metrics,
		progress:  p.Progress,
		runID:     p.RunID,
		target:    p.Target,
	}, nil
}

// RunID returns the run identifier.
func (c *Crawler) RunID() string { return c.runID }

// Run executes one crawl: gather candidates, drop the already-stored,
// fetch and persist the rest. The run never aborts on a single item,
// page, or strategy failure; the result carries the counts a caller
// needs to judge completeness. The returned error is non-nil only for
// context cancellation or a store failure during dedup.
func (c *Crawler) Run(ctx context.Context) (*types.RunResult, error) {
	start := time.Now()
	result := &types.RunResult{
		RunID:   c.runID,
		Target:  c.cfg.Target,
		Profile: c.cfg.Profile,
	}
	c.logger.Info("crawl started", map[string]any{
		"target": c.cfg.Target, "profile": c.cfg.Profile, "want": c.target,
	})

	strategies, err := BuildStrategies(c.cfg.Profile, c.client, c.external, c.cfg.Keywords, c.logger)
	if err != nil {
		return nil, err
	}

	orch := NewOrchestrator(strategies, c.cfg.Orchestrator, c.logger, c.metrics, c.progress)
	candidates, gains, err := orch.Gather(ctx, c.cfg.Target, c.target)
	result.Gains = gains
	result.CandidatesFound = len(candidates)
	if err != nil {
		result.Elapsed = time.Since(start)
		return result, err
	}

	dedup := NewDedupFilter(c.store, c.cfg.Orchestrator.DedupBatchSize)
	fresh, err := dedup.FilterNew(ctx, candidates)
	if err != nil {
		result.Elapsed = time.Since(start)
		return result, fmt.Errorf("dedup against store: %w", err)
	}
	result.CandidatesNew = len(fresh)
	result.Skipped = len(candidates) - len(fresh)
	c.logger.Info("candidates deduplicated", map[string]any{
		"found": len(candidates), "new": len(fresh), "skipped": result.Skipped,
	})

	exec := NewFetchExecutor(c.client, c.store, c.cfg.Executor, c.logger, c.metrics, c.progress)
	exec.archiveFn = c.archivePost
	outcome := exec.Execute(ctx, fresh, c.target)
	result.Scraped = outcome.Scraped
	result.Errored = outcome.Errored
	result.Elapsed = time.Since(start)

	c.logger.Info("crawl finished", map[string]any{
		"scraped": result.Scraped, "errored": result.Errored,
		"skipped": result.Skipped, "elapsed": result.Elapsed.String(),
	})

	c.publish(ctx, result)
	return result, ctx.Err()
}

// archivePost writes the raw JSON sidecar for one fetched post.
// Best-effort: failures are logged and counted, never propagated.
func (c *Crawler) archivePost(ctx context.Context, item *types.FetchResult) {
	if c.archive == nil {
		return
	}
	data, err := json.Marshal(item)
	if err == nil {
		err = c.archive.WritePost(ctx, item.Post.ID, data)
	}
	if err != nil {
		c.metrics.IncArchiveFailure()
		c.logger.Warn("archive write failed", map[string]any{
			"post": item.Post.ID, "error": err.Error(),
		})
		return
	}
	c.metrics.IncArchiveWrite()
}

// publish notifies the downstream adapter. Best-effort.
func (c *Crawler) publish(ctx context.Context, result *types.RunResult) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, adapter.FromRunResult(result)); err != nil {
		c.logger.Warn("completion event publish failed", map[string]any{"error": err.Error()})
	}
}
