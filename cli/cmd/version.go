package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// VersionCommand returns the version command.
func VersionCommand(version, commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(*cli.Context) error {
			fmt.Printf("reddit-crawler %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
