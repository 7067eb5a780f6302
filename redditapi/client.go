// Package redditapi is the HTTP client for the remote JSON API.
//
// Every request flows through the shared rate controller: the client
// sleeps the controller's delay before firing, rotates the session
// identity when the controller flags it, and records the outcome of
// every response. Callers receive taxonomy errors (ErrRateLimited,
// ErrBlocked, *ParseError) and decide retry/fallback per their own
// contract; the client itself never retries.
package redditapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/ratelimit"
	"github.com/mouguu/reddit-crawler/session"
)

// DefaultBaseURL is the public JSON API host.
const DefaultBaseURL = "https://www.reddit.com"

// PageSize is the listing page size. The API caps it at 100.
const PageSize = 100

// Client talks to the remote JSON API.
type Client struct {
	base     string
	http     *http.Client
	rc       *ratelimit.Controller
	sessions *session.Manager
	logger   *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host. Used by tests and mirrors.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = strings.TrimRight(base, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a logger. Nil is fine; logging is best-effort.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client bound to a rate controller and session
// manager. Both are required: the client is the only place requests
// leave the process, so the controller's view of outcomes stays exact.
func NewClient(rc *ratelimit.Controller, sessions *session.Manager, opts ...Option) *Client {
	c := &Client{
		base:     DefaultBaseURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		rc:       rc,
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BackoffAfterRateLimit performs the post-429 handling shared by every
// caller: rotate the session identity if the controller flagged it,
// then wait out the cooldown band (or the regular delay when not in
// cooldown) before the caller retries.
func (c *Client) BackoffAfterRateLimit(ctx context.Context) error {
	if c.sessions.RefreshIfNeeded(c.rc) {
		c.logger.Info("session identity rotated", nil)
	}
	wait := c.rc.Delay()
	if c.rc.InCooldown() {
		wait = c.rc.CooldownWait()
		c.logger.Warn("cooldown wait", map[string]any{"wait": wait.String()})
	}
	return sleep(ctx, wait)
}

// ShouldSkipStrategy proxies the controller's early-abort signal so
// strategies depend on the client alone.
func (c *Client) ShouldSkipStrategy() bool { return c.rc.ShouldSkipStrategy() }

// get performs one rate-governed GET and decodes the JSON body into v.
// search selects the wider search-endpoint delay.
func (c *Client) get(ctx context.Context, rawURL string, search bool, v any) error {
	delay := c.rc.Delay()
	if search {
		delay = c.rc.SearchDelay()
	}
	if err := sleep(ctx, delay); err != nil {
		return err
	}

	c.sessions.RefreshIfNeeded(c.rc)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.sessions.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.rc.RecordOtherError()
		return fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.rc.RecordRateLimit()
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", rawURL, ErrRateLimited)
	case resp.StatusCode == http.StatusForbidden:
		c.rc.RecordOtherError()
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", rawURL, ErrBlocked)
	case resp.StatusCode != http.StatusOK:
		c.rc.RecordOtherError()
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "json") {
		c.rc.RecordOtherError()
		return &ParseError{URL: rawURL, Reason: "content-type " + ct}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.rc.RecordOtherError()
		return fmt.Errorf("read body %s: %w", rawURL, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		c.rc.RecordOtherError()
		return &ParseError{URL: rawURL, Reason: "bad json", Err: err}
	}

	c.rc.RecordSuccess()
	return nil
}

// buildURL assembles base/path?query.
func (c *Client) buildURL(path string, query url.Values) string {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// sleep waits d, honoring ctx cancellation.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
