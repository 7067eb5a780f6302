// Package export renders stored posts into human-facing formats: a CSV
// table for analysis and a Markdown digest for reading.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mouguu/reddit-crawler/types"
)

// csvHeader is the column layout. created_utc stays raw for sorting;
// created_date is the same instant rendered for humans.
var csvHeader = []string{
	"post_id", "title", "author", "score", "url",
	"created_utc", "created_date", "num_comments",
	"subreddit", "content_type",
}

// summaryLimit bounds the selftext excerpt in the Markdown digest.
const summaryLimit = 200

// WriteCSV renders items as CSV with a header row.
func WriteCSV(w io.Writer, items []*types.FetchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, item := range items {
		p := item.Post
		contentType := "link"
		if p.IsSelf {
			contentType = "text"
		}
		row := []string{
			p.ID,
			p.Title,
			p.Author,
			strconv.Itoa(p.Score),
			p.URL,
			strconv.FormatFloat(p.CreatedUTC, 'f', 0, 64),
			formatCreated(p.CreatedUTC),
			strconv.Itoa(p.NumComments),
			p.Subreddit,
			contentType,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMarkdown renders a digest: a run header followed by one section
// per post with an excerpt of the body text.
func WriteMarkdown(w io.Writer, target string, items []*types.FetchResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Crawl Results: r/%s\n\n", target)
	fmt.Fprintf(&b, "**Date:** %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Posts:** %d\n\n", len(items))

	for i, item := range items {
		p := item.Post
		title := p.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, title)
		fmt.Fprintf(&b, "**Author:** u/%s | **Score:** %d | **Comments:** %d\n", p.Author, p.Score, p.NumComments)
		fmt.Fprintf(&b, "**URL:** %s\n\n", p.URL)
		if p.SelfText != "" {
			fmt.Fprintf(&b, "%s\n\n", excerpt(p.SelfText))
		}
		b.WriteString("---\n\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// excerpt flattens newlines and truncates at the summary limit.
func excerpt(text string) string {
	flat := strings.ReplaceAll(text, "\n", " ")
	runes := []rune(flat)
	if len(runes) <= summaryLimit {
		return flat
	}
	return string(runes[:summaryLimit]) + "..."
}

func formatCreated(utc float64) string {
	if utc == 0 {
		return ""
	}
	return time.Unix(int64(utc), 0).UTC().Format("2006-01-02 15:04:05")
}
