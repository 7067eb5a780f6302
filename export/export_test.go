package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/mouguu/reddit-crawler/types"
)

func items() []*types.FetchResult {
	return []*types.FetchResult{
		{Post: types.PostMeta{
			ID: "abc123", Title: "Go 1.25 released", Author: "gopher",
			Score: 420, URL: "https://example.com/post", CreatedUTC: 1755900000,
			NumComments: 37, Subreddit: "golang", IsSelf: false,
		}},
		{Post: types.PostMeta{
			ID: "def456", Title: "Generics question", Author: "newbie",
			Score: 12, URL: "https://example.com/q", CreatedUTC: 1755910000,
			NumComments: 5, Subreddit: "golang", IsSelf: true,
			SelfText: "How do I constrain\na type parameter?",
		}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, items()); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "post_id" || rows[0][9] != "content_type" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "abc123" || rows[1][3] != "420" || rows[1][9] != "link" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][9] != "text" {
		t.Errorf("self post content_type = %q, want text", rows[2][9])
	}
	if rows[1][6] == "" {
		t.Error("created_date not rendered")
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("lines = %d, want header only", got)
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, "golang", items()); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Crawl Results: r/golang",
		"**Posts:** 2",
		"## 1. Go 1.25 released",
		"**Author:** u/gopher | **Score:** 420",
		"## 2. Generics question",
		"How do I constrain a type parameter?",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("digest missing %q", want)
		}
	}
	if strings.Contains(out, "constrain\na type") {
		t.Error("newlines not flattened in the excerpt")
	}
}

func TestExcerpt_Truncates(t *testing.T) {
	long := strings.Repeat("é", 300)
	got := excerpt(long)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("excerpt = %q, want ellipsis suffix", got[len(got)-10:])
	}
	if n := len([]rune(got)); n != summaryLimit+3 {
		t.Errorf("excerpt runes = %d, want %d", n, summaryLimit+3)
	}
}
