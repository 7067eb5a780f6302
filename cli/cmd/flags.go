// Package cmd provides CLI commands for the reddit-crawler binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags across commands.
var (
	// ConfigFlag points at the crawler.yaml file. A missing file falls
	// back to built-in defaults.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to crawler.yaml",
		Value:   "crawler.yaml",
	}

	// FormatFlag selects output format for read-only commands.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json",
		Value:   "text",
	}
)

// ReadOnlyFlags returns the shared flags for commands that only read
// the store.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		FormatFlag,
	}
}
