package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mouguu/reddit-crawler/config"
	"github.com/mouguu/reddit-crawler/store"
)

// StatsCommand returns the stats command. Read-only.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show store statistics and the most recent posts",
		Flags: append(ReadOnlyFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of recent posts to list",
				Value: 10,
			},
		),
		Action: statsAction,
	}
}

// statsOutput is the JSON shape of the stats command.
type statsOutput struct {
	Total  int64       `json:"total_posts"`
	Recent []statsPost `json:"recent"`
}

type statsPost struct {
	ID          string `json:"id"`
	Subreddit   string `json:"subreddit"`
	Title       string `json:"title"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
}

func statsAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitConfigError)
	}

	st, err := store.Open(c.Context, cfg.Storage)
	if err != nil {
		return cli.Exit(fmt.Sprintf("storage: %v", err), exitConfigError)
	}
	defer func() { _ = st.Close() }()

	total, err := st.Count(c.Context)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	items, err := st.Recent(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("recent: %w", err)
	}

	out := statsOutput{Total: total, Recent: make([]statsPost, 0, len(items))}
	for _, item := range items {
		out.Recent = append(out.Recent, statsPost{
			ID:          item.Post.ID,
			Subreddit:   item.Post.Subreddit,
			Title:       item.Post.Title,
			Score:       item.Post.Score,
			NumComments: item.Post.NumComments,
		})
	}

	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("total posts: %d\n\n", out.Total)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSUBREDDIT\tSCORE\tCOMMENTS\tTITLE")
	for _, p := range out.Recent {
		title := p.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", p.ID, p.Subreddit, p.Score, p.NumComments, title)
	}
	return w.Flush()
}
