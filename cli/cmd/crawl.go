package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/mouguu/reddit-crawler/adapter"
	redisadapter "github.com/mouguu/reddit-crawler/adapter/redis"
	"github.com/mouguu/reddit-crawler/adapter/webhook"
	"github.com/mouguu/reddit-crawler/archive"
	"github.com/mouguu/reddit-crawler/config"
	"github.com/mouguu/reddit-crawler/crawler"
	"github.com/mouguu/reddit-crawler/export"
	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/metrics"
	"github.com/mouguu/reddit-crawler/ratelimit"
	"github.com/mouguu/reddit-crawler/redditapi"
	"github.com/mouguu/reddit-crawler/session"
	"github.com/mouguu/reddit-crawler/store"
	"github.com/mouguu/reddit-crawler/types"
)

// Exit codes for crawl.
const (
	exitSuccess     = 0
	exitConfigError = 1
	exitCrawlError  = 2
)

// CrawlCommand returns the crawl command, the only command that
// executes work.
func CrawlCommand() *cli.Command {
	return &cli.Command{
		Name:  "crawl",
		Usage: "Run a crawl against one target community",
		Flags: []cli.Flag{
			ConfigFlag,
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Community to crawl, without the r/ prefix",
			},
			&cli.IntFlag{
				Name:    "posts",
				Aliases: []string{"n"},
				Usage:   "Number of posts to fetch",
				Value:   100,
			},
			&cli.StringFlag{
				Name:    "profile",
				Aliases: []string{"p"},
				Usage:   "Crawl profile: full, popularity, recency, search",
			},
			&cli.StringSliceFlag{
				Name:  "keyword",
				Usage: "Keyword for the search strategy (repeatable)",
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Run ID (generated when omitted)",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Write this run's posts as CSV to the given path",
			},
			&cli.StringFlag{
				Name:  "markdown",
				Usage: "Write this run's posts as a Markdown digest to the given path",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress output",
			},
			FormatFlag,
		},
		Action: crawlAction,
	}
}

func crawlAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitConfigError)
	}
	if c.IsSet("target") {
		cfg.Target = c.String("target")
	}
	if c.IsSet("profile") {
		cfg.Profile = c.String("profile")
	}
	if kws := c.StringSlice("keyword"); len(kws) > 0 {
		cfg.Keywords = kws
	}
	if cfg.Target == "" {
		return cli.Exit("a target is required (--target or config)", exitConfigError)
	}
	posts := c.Int("posts")
	if posts <= 0 {
		return cli.Exit("--posts must be positive", exitConfigError)
	}

	runID := c.String("run-id")
	if runID == "" {
		runID = uuid.New().String()
	}
	logger := log.NewLogger(runID, cfg.Target, cfg.Profile)
	collector := metrics.NewCollector(runID, cfg.Target, cfg.Profile)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return cli.Exit(fmt.Sprintf("storage: %v", err), exitConfigError)
	}
	defer func() { _ = st.Close() }()

	sink, err := archive.Open(ctx, cfg.Archive, runID)
	if err != nil {
		return cli.Exit(fmt.Sprintf("archive: %v", err), exitConfigError)
	}

	publisher, err := newPublisher(cfg.Adapter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("adapter: %v", err), exitConfigError)
	}
	if publisher != nil {
		defer func() { _ = publisher.Close() }()
	}

	rc := ratelimit.NewController(cfg.Rate)
	client := redditapi.NewClient(rc, session.NewManager(), redditapi.WithLogger(logger))

	var progress crawler.ProgressFunc
	if !c.Bool("quiet") {
		progress = func(current, total int, message string) {
			fmt.Fprintf(os.Stderr, "\r%s: %d/%d", message, current, total)
		}
	}

	cr, err := crawler.New(crawler.Params{
		Config:    &cfg,
		Client:    client,
		Store:     st,
		RunID:     runID,
		Target:    posts,
		Archive:   sink,
		Publisher: publisher,
		Logger:    logger,
		Metrics:   collector,
		Progress:  progress,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("crawl setup: %v", err), exitConfigError)
	}

	result, err := cr.Run(ctx)
	if !c.Bool("quiet") {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("crawl: %v", err), exitCrawlError)
	}

	if err := writeRunExports(ctx, c, st, cfg.Target, result.Scraped); err != nil {
		return cli.Exit(fmt.Sprintf("export: %v", err), exitCrawlError)
	}

	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Printf("run %s finished: %d scraped, %d skipped, %d errored (%d candidates, %s)\n",
		result.RunID, result.Scraped, result.Skipped, result.Errored,
		result.CandidatesFound, result.Elapsed.Round(100*time.Millisecond))
	return nil
}

// writeRunExports renders the posts this run persisted into the
// requested files. The store answers newest-first, so a limit of the
// run's scraped count covers exactly this run.
func writeRunExports(ctx context.Context, c *cli.Context, st store.Store, target string, scraped int) error {
	csvPath := c.String("csv")
	mdPath := c.String("markdown")
	if csvPath == "" && mdPath == "" {
		return nil
	}
	var items []*types.FetchResult
	if scraped > 0 {
		var err error
		items, err = st.Recent(ctx, scraped)
		if err != nil {
			return err
		}
	}
	if csvPath != "" {
		if err := writeTo(csvPath, func(f *os.File) error {
			return export.WriteCSV(f, items)
		}); err != nil {
			return err
		}
	}
	if mdPath != "" {
		if err := writeTo(mdPath, func(f *os.File) error {
			return export.WriteMarkdown(f, target, items)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeTo(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// newPublisher builds the completion event adapter named by cfg. A nil
// Retries in the config defers to the adapter's own default.
func newPublisher(cfg config.AdapterConfig) (adapter.Adapter, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "redis":
		retries := redisadapter.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return redisadapter.New(redisadapter.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	case "webhook":
		retries := webhook.DefaultRetries
		if cfg.Retries != nil {
			retries = *cfg.Retries
		}
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q", cfg.Type)
	}
}
