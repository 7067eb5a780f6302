package redditapi

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/mouguu/reddit-crawler/types"
)

// detailThing mirrors one listing of the two-element detail response.
type detailThing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []detailChild `json:"children"`
	} `json:"data"`
}

// detailChild defers payload decoding until the kind is known:
// t3 is the post, t1 a comment, more a continuation marker.
type detailChild struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postPayload struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	SelfText    string  `json:"selftext"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
	NumComments int     `json:"num_comments"`
	FlairText   string  `json:"link_flair_text"`
	IsSelf      bool    `json:"is_self"`
	Over18      bool    `json:"over_18"`
}

type commentPayload struct {
	ID          string          `json:"id"`
	Author      string          `json:"author"`
	Body        string          `json:"body"`
	Score       int             `json:"score"`
	CreatedUTC  float64         `json:"created_utc"`
	Permalink   string          `json:"permalink"`
	IsSubmitter bool            `json:"is_submitter"`
	// Replies is a nested listing object, or the empty string when the
	// comment is a leaf. RawMessage defers that shape difference.
	Replies json.RawMessage `json:"replies"`
}

type morePayload struct {
	Count int `json:"count"`
}

// PostDetail fetches one post with its full comment tree. The detail
// endpoint returns a two-element array: the post listing and the
// comment listing. Comments arrive flattened in document order with
// depth and parent tracking; comments hidden behind unexpanded "more"
// markers are counted, never fetched.
func (c *Client) PostDetail(ctx context.Context, permalink string) (*types.FetchResult, error) {
	u, err := c.detailURL(permalink)
	if err != nil {
		return nil, err
	}

	var listings []detailThing
	if err := c.get(ctx, u, false, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 1 || len(listings[0].Data.Children) == 0 {
		return nil, &ParseError{URL: u, Reason: "no post data"}
	}

	var post postPayload
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &post); err != nil {
		return nil, &ParseError{URL: u, Reason: "bad post payload", Err: err}
	}
	if post.ID == "" {
		return nil, &ParseError{URL: u, Reason: "post id missing"}
	}

	result := &types.FetchResult{
		Post: types.PostMeta{
			ID:          post.ID,
			Title:       post.Title,
			Author:      orDeleted(post.Author),
			Score:       post.Score,
			UpvoteRatio: post.UpvoteRatio,
			SelfText:    post.SelfText,
			URL:         post.URL,
			Permalink:   DefaultBaseURL + post.Permalink,
			Subreddit:   post.Subreddit,
			CreatedUTC:  post.CreatedUTC,
			NumComments: post.NumComments,
			FlairText:   post.FlairText,
			IsSelf:      post.IsSelf,
			Over18:      post.Over18,
		},
		Status: types.FetchSuccess,
	}

	if len(listings) >= 2 {
		result.Comments, result.HiddenComments = flattenComments(listings[1], post.ID)
	}
	return result, nil
}

// detailURL rewrites the permalink onto the client's base host and
// appends the .json suffix.
func (c *Client) detailURL(permalink string) (string, error) {
	parsed, err := url.Parse(permalink)
	if err != nil {
		return "", &ParseError{URL: permalink, Reason: "bad permalink", Err: err}
	}
	path := strings.TrimRight(parsed.Path, "/")
	if path == "" {
		return "", &ParseError{URL: permalink, Reason: "empty permalink path"}
	}
	return c.base + path + ".json", nil
}

// commentFrame is one pending node of the iterative tree walk.
type commentFrame struct {
	child    detailChild
	depth    int
	parentID string
}

// flattenComments walks the comment listing iteratively with an
// explicit stack. Deeply nested threads exist in the wild; recursing
// per reply level risks stack growth proportional to thread depth.
// Malformed nodes are skipped, not fatal. Returns the flat list in
// document order plus the total count hidden behind "more" markers.
func flattenComments(listing detailThing, postID string) ([]types.Comment, int) {
	var comments []types.Comment
	hidden := 0

	stack := make([]commentFrame, 0, len(listing.Data.Children))
	pushChildren(&stack, listing.Data.Children, 0, postID)

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch frame.child.Kind {
		case "t1":
			var payload commentPayload
			if err := json.Unmarshal(frame.child.Data, &payload); err != nil || payload.ID == "" {
				continue
			}
			comments = append(comments, types.Comment{
				ID:          payload.ID,
				Author:      orDeleted(payload.Author),
				Body:        payload.Body,
				Score:       payload.Score,
				CreatedUTC:  payload.CreatedUTC,
				Depth:       frame.depth,
				ParentID:    frame.parentID,
				Permalink:   payload.Permalink,
				IsSubmitter: payload.IsSubmitter,
			})

			if replies := decodeReplies(payload.Replies); replies != nil {
				pushChildren(&stack, replies, frame.depth+1, payload.ID)
			}
		case "more":
			var payload morePayload
			if err := json.Unmarshal(frame.child.Data, &payload); err == nil {
				hidden += payload.Count
			}
		}
	}
	return comments, hidden
}

// pushChildren pushes children in reverse so the LIFO pop preserves
// document order.
func pushChildren(stack *[]commentFrame, children []detailChild, depth int, parentID string) {
	for i := len(children) - 1; i >= 0; i-- {
		*stack = append(*stack, commentFrame{child: children[i], depth: depth, parentID: parentID})
	}
}

// decodeReplies extracts nested children from a replies payload, which
// is either a listing object or the empty string.
func decodeReplies(raw json.RawMessage) []detailChild {
	if len(raw) == 0 || string(raw) == `""` || string(raw) == "null" {
		return nil
	}
	var nested detailThing
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil
	}
	return nested.Data.Children
}

func orDeleted(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}
