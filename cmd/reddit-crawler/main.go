// Package main provides the reddit-crawler CLI entrypoint.
//
// Usage:
//
//	reddit-crawler <command> [options]
//
// Exit codes for `crawl`:
//   - 0: run completed
//   - 1: configuration or usage error
//   - 2: crawl failure
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mouguu/reddit-crawler/cli/cmd"
)

const version = "0.3.0"

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "reddit-crawler",
		Usage:          "Adaptive crawl engine for community post archives",
		Version:        fmt.Sprintf("%s (commit: %s)", version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.CrawlCommand(),
			cmd.StatsCommand(),
			cmd.ExportCommand(),
			cmd.VersionCommand(version, commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled cli.ExitCoder errors. This
		// branch covers unexpected errors that were not wrapped.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit so crawl's error
// taxonomy reaches the shell.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(coder.ExitCode())
	}
}
