package redditapi

import (
	"errors"
	"fmt"
)

// ErrRateLimited marks a 429 response. The controller has already
// recorded the failure by the time a caller sees this; the caller
// decides whether to retry the page once or move on.
var ErrRateLimited = errors.New("rate limited")

// ErrBlocked marks a 403 response. Strategy-fatal: the current strategy
// aborts, possibly falling back to a simpler one.
var ErrBlocked = errors.New("blocked")

// StatusError is returned for unexpected, non-taxonomy HTTP statuses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// ParseError marks a malformed response: non-JSON content or missing
// expected keys. Page-fatal for the current strategy; candidates
// collected before the bad page are preserved by the caller.
type ParseError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response from %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: %s", e.URL, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
