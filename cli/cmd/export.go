package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mouguu/reddit-crawler/config"
	"github.com/mouguu/reddit-crawler/export"
	"github.com/mouguu/reddit-crawler/store"
)

// ExportCommand returns the export command. Read-only.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Render stored posts as CSV or a Markdown digest",
		Flags: []cli.Flag{
			ConfigFlag,
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: csv, markdown",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output path (stdout when omitted)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum posts to export, newest first (0 = all)",
			},
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "Community name for the Markdown header",
			},
		},
		Action: exportAction,
	}
}

func exportAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitConfigError)
	}

	st, err := store.Open(c.Context, cfg.Storage)
	if err != nil {
		return cli.Exit(fmt.Sprintf("storage: %v", err), exitConfigError)
	}
	defer func() { _ = st.Close() }()

	items, err := st.Recent(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("recent: %w", err)
	}

	target := c.String("target")
	if target == "" {
		target = cfg.Target
	}

	var w io.Writer = os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	switch c.String("format") {
	case "csv":
		return export.WriteCSV(w, items)
	case "markdown", "md":
		return export.WriteMarkdown(w, target, items)
	default:
		return cli.Exit(fmt.Sprintf("unknown export format %q", c.String("format")), exitConfigError)
	}
}
