package types

// PostMeta carries the metadata of a fetched post.
type PostMeta struct {
	ID          string  `json:"id" msgpack:"id"`
	Title       string  `json:"title" msgpack:"title"`
	Author      string  `json:"author" msgpack:"author"`
	Score       int     `json:"score" msgpack:"score"`
	UpvoteRatio float64 `json:"upvote_ratio" msgpack:"upvote_ratio"`
	SelfText    string  `json:"selftext" msgpack:"selftext"`
	URL         string  `json:"url" msgpack:"url"`
	Permalink   string  `json:"permalink" msgpack:"permalink"`
	Subreddit   string  `json:"subreddit" msgpack:"subreddit"`
	CreatedUTC  float64 `json:"created_utc" msgpack:"created_utc"`
	NumComments int     `json:"num_comments" msgpack:"num_comments"`
	FlairText   string  `json:"link_flair_text,omitempty" msgpack:"link_flair_text,omitempty"`
	IsSelf      bool    `json:"is_self" msgpack:"is_self"`
	Over18      bool    `json:"over_18" msgpack:"over_18"`
}

// Comment is one node of a post's comment tree, flattened with position
// metadata. ParentID refers to the enclosing comment, or the post ID at
// depth zero. There are no back-references: the flat list plus
// (Depth, ParentID) fully describes the tree.
type Comment struct {
	ID          string  `json:"id" msgpack:"id"`
	Author      string  `json:"author" msgpack:"author"`
	Body        string  `json:"body" msgpack:"body"`
	Score       int     `json:"score" msgpack:"score"`
	CreatedUTC  float64 `json:"created_utc" msgpack:"created_utc"`
	Depth       int     `json:"depth" msgpack:"depth"`
	ParentID    string  `json:"parent_id" msgpack:"parent_id"`
	Permalink   string  `json:"permalink,omitempty" msgpack:"permalink,omitempty"`
	IsSubmitter bool    `json:"is_submitter" msgpack:"is_submitter"`
}

// FetchStatus is the terminal state of one detail fetch.
type FetchStatus string

const (
	FetchSuccess FetchStatus = "success"
	FetchError   FetchStatus = "error"
	FetchTimeout FetchStatus = "timeout"
)

// FetchResult is the output of one detail fetch: the post, its flattened
// comment tree, and the count of comments hidden behind unexpanded
// continuation markers.
type FetchResult struct {
	Post           PostMeta    `json:"post" msgpack:"post"`
	Comments       []Comment   `json:"comments" msgpack:"comments"`
	HiddenComments int         `json:"hidden_comments" msgpack:"hidden_comments"`
	Status         FetchStatus `json:"status" msgpack:"status"`
}
