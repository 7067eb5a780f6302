// Package session owns the outbound transport identity.
//
// The manager holds one immutable Identity at a time: the header set,
// including a browser fingerprint, stamped onto every outbound request.
// Refresh replaces the identity wholesale (replace-and-publish, never
// in-place mutation), so concurrent readers always observe a coherent
// header set. Rotation is triggered only by the rate controller's
// refresh flag; strategies never decide on their own when to look
// different to the remote service.
package session

import (
	"math/rand"
	"net/http"
	"sync"
)

// browser fingerprints rotated on refresh. Real, current desktop
// browsers; listing endpoints profile these far less than bot agents.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0",
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.8",
	"en-CA,en;q=0.7",
}

var clientHints = []string{
	`"Google Chrome";v="120", "Chromium";v="120", "Not_A Brand";v="24"`,
	`"Microsoft Edge";v="120", "Chromium";v="120", "Not_A Brand";v="24"`,
}

var platforms = []string{`"Windows"`, `"macOS"`, `"Linux"`}

// Identity is the active set of outbound request headers. Immutable
// once published; Refresh builds a new one rather than editing this.
type Identity struct {
	UserAgent string
	Headers   map[string]string
}

// Refresher is the rate controller surface the manager consumes: the
// one-shot rotation flag set on cooldown entry.
type Refresher interface {
	NeedsIdentityRefresh() bool
	MarkIdentityRefreshed()
}

// Manager holds the current identity and rotates it on demand.
// Thread-safe: reads take the read lock, refresh the write lock.
type Manager struct {
	mu       sync.RWMutex
	identity *Identity

	// randIntn is injectable for tests.
	randIntn func(n int) int
}

// NewManager creates a manager with a freshly drawn identity.
func NewManager() *Manager {
	m := &Manager{randIntn: rand.Intn}
	m.identity = m.draw()
	return m
}

// Identity returns the active identity. The returned value must be
// treated as read-only.
func (m *Manager) Identity() *Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity
}

// Apply stamps the active identity's headers onto req.
func (m *Manager) Apply(req *http.Request) {
	id := m.Identity()
	req.Header.Set("User-Agent", id.UserAgent)
	for k, v := range id.Headers {
		req.Header.Set(k, v)
	}
}

// Refresh replaces the identity wholesale with a newly drawn one.
func (m *Manager) Refresh() {
	next := m.draw()
	m.mu.Lock()
	m.identity = next
	m.mu.Unlock()
}

// RefreshIfNeeded consults the controller's rotation flag, rotating and
// clearing it when set. Returns true when a rotation happened.
func (m *Manager) RefreshIfNeeded(rc Refresher) bool {
	if rc == nil || !rc.NeedsIdentityRefresh() {
		return false
	}
	m.Refresh()
	rc.MarkIdentityRefreshed()
	return true
}

// draw builds a new identity from the fingerprint pools.
func (m *Manager) draw() *Identity {
	pick := func(pool []string) string { return pool[m.randIntn(len(pool))] }

	return &Identity{
		UserAgent: pick(userAgents),
		Headers: map[string]string{
			"Accept":             "application/json",
			"Accept-Language":    pick(acceptLanguages),
			"DNT":                "1",
			"Connection":         "keep-alive",
			"Sec-Ch-Ua":          pick(clientHints),
			"Sec-Ch-Ua-Mobile":   "?0",
			"Sec-Ch-Ua-Platform": pick(platforms),
			"Sec-Fetch-Dest":     "document",
			"Sec-Fetch-Mode":     "navigate",
			"Sec-Fetch-Site":     "none",
		},
	}
}
