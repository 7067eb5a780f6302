// Package ratelimit implements the adaptive request rate controller.
//
// The controller tracks the outcome history of outbound requests and
// derives the spacing to use before the next one. Failures widen the
// spacing multiplicatively (true exponential backoff); recovery narrows
// it gradually, which prevents oscillation between fast and throttled
// regimes. Repeated rate-limit responses push the controller into a
// distinct cooldown regime that combines longer randomized waits with a
// forced session identity rotation.
//
// There is exactly one controller per crawl run. Strategies and the
// fetch executor share it and must never mutate its state directly;
// they record outcomes through the Record* methods.
package ratelimit

import (
	"math/rand"
	"sync"
	"time"

	"github.com/mouguu/reddit-crawler/config"
)

// Controller is the rate controller. Thread-safe for concurrent access.
type Controller struct {
	mu sync.Mutex

	cfg config.RateConfig

	currentDelay        time.Duration
	consecutiveFailures int
	successStreak       int
	lastFailureTime     time.Time
	totalRequests       int64
	successfulRequests  int64

	cooldown          bool
	cooldownStartedAt time.Time
	needsRefresh      bool

	// now and randFloat are injectable for tests.
	now       func() time.Time
	randFloat func() float64
}

// NewController creates a controller from the given tuning.
// Zero-valued config fields fall back to the defaults.
func NewController(cfg config.RateConfig) *Controller {
	def := config.DefaultRate()
	if cfg.BaseDelay.Duration <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MinDelay.Duration <= 0 {
		cfg.MinDelay = def.MinDelay
	}
	if cfg.MaxDelay.Duration <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.RecoveryStreak <= 0 {
		cfg.RecoveryStreak = def.RecoveryStreak
	}
	if cfg.RecoveryFloor.Duration <= 0 {
		cfg.RecoveryFloor = def.RecoveryFloor
	}
	if cfg.CooldownTrigger <= 0 {
		cfg.CooldownTrigger = def.CooldownTrigger
	}
	if cfg.CooldownExitStreak <= 0 {
		cfg.CooldownExitStreak = def.CooldownExitStreak
	}
	if cfg.SkipThreshold <= 0 {
		cfg.SkipThreshold = def.SkipThreshold
	}
	if cfg.RecentFailureWindow.Duration <= 0 {
		cfg.RecentFailureWindow = def.RecentFailureWindow
	}
	if cfg.SearchDelayFactor <= 0 {
		cfg.SearchDelayFactor = def.SearchDelayFactor
	}

	return &Controller{
		cfg:          cfg,
		currentDelay: clamp(cfg.BaseDelay.Duration, cfg.MinDelay.Duration, cfg.MaxDelay.Duration),
		now:          time.Now,
		randFloat:    rand.Float64,
	}
}

// RecordSuccess records a successful request. Exits cooldown after a
// qualifying success streak and gradually decays the delay once the
// streak passes the recovery threshold.
func (c *Controller) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
	c.successfulRequests++
	c.successStreak++
	c.consecutiveFailures = 0

	if c.cooldown && c.successStreak >= c.cfg.CooldownExitStreak {
		c.cooldown = false
		c.needsRefresh = false
	}

	if c.successStreak > c.cfg.RecoveryStreak && c.currentDelay > c.cfg.RecoveryFloor.Duration {
		c.currentDelay = time.Duration(float64(c.currentDelay) * 0.95)
		if c.currentDelay < c.cfg.RecoveryFloor.Duration {
			c.currentDelay = c.cfg.RecoveryFloor.Duration
		}
		c.currentDelay = clamp(c.currentDelay, c.cfg.MinDelay.Duration, c.cfg.MaxDelay.Duration)
	}
}

// RecordRateLimit records a rate-limited (429) response. Backoff is
// exponential: 2.0x for the first three consecutive failures, 1.5x
// after, capped at MaxDelay. Crossing the cooldown trigger enters
// cooldown and flags the session for identity rotation; re-entering
// while already cooling is a no-op.
func (c *Controller) RecordRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
	c.consecutiveFailures++
	c.successStreak = 0
	c.lastFailureTime = c.now()

	if c.consecutiveFailures <= 3 {
		c.currentDelay = time.Duration(float64(c.currentDelay) * 2.0)
	} else {
		c.currentDelay = time.Duration(float64(c.currentDelay) * 1.5)
	}
	c.currentDelay = clamp(c.currentDelay, c.cfg.MinDelay.Duration, c.cfg.MaxDelay.Duration)

	if c.consecutiveFailures >= c.cfg.CooldownTrigger && !c.cooldown {
		c.cooldown = true
		c.cooldownStartedAt = c.now()
		c.needsRefresh = true
	}
}

// RecordOtherError records a non-rate-limit failure (transport error,
// unexpected status). The delay widens mildly, not exponentially.
func (c *Controller) RecordOtherError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalRequests++
	c.successStreak = 0
	c.currentDelay = clamp(
		time.Duration(float64(c.currentDelay)*1.1),
		c.cfg.MinDelay.Duration, c.cfg.MaxDelay.Duration,
	)
}

// Delay returns the spacing to sleep before the next request: the
// current delay doubled if a failure happened inside the recent-failure
// window, otherwise the current delay floored at MinDelay.
func (c *Controller) Delay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastFailureTime.IsZero() && c.now().Sub(c.lastFailureTime) < c.cfg.RecentFailureWindow.Duration {
		return c.currentDelay * 2
	}
	if c.currentDelay < c.cfg.MinDelay.Duration {
		return c.cfg.MinDelay.Duration
	}
	return c.currentDelay
}

// SearchDelay returns the spacing for search endpoints, which are
// presumed more sensitive than listings.
func (c *Controller) SearchDelay() time.Duration {
	return time.Duration(float64(c.Delay()) * c.cfg.SearchDelayFactor)
}

// ShouldSkipStrategy reports whether a strategy should abort early
// rather than keep hammering a failing endpoint.
func (c *Controller) ShouldSkipStrategy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consecutiveFailures >= c.cfg.SkipThreshold
}

// InCooldown reports whether the degraded cooldown regime is active.
func (c *Controller) InCooldown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cooldown
}

// CooldownWait returns a randomized wait drawn from bands keyed by the
// consecutive failure count; the band widens with failure severity.
// Zero when not in cooldown.
func (c *Controller) CooldownWait() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cooldown {
		return 0
	}
	var lo, hi time.Duration
	switch {
	case c.consecutiveFailures <= 3:
		lo, hi = 10*time.Second, 20*time.Second
	case c.consecutiveFailures <= 5:
		lo, hi = 20*time.Second, 40*time.Second
	default:
		lo, hi = 40*time.Second, 60*time.Second
	}
	return lo + time.Duration(c.randFloat()*float64(hi-lo))
}

// NeedsIdentityRefresh reports the one-shot rotation flag set on
// cooldown entry. Consumed by the session manager, never by strategies.
func (c *Controller) NeedsIdentityRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsRefresh
}

// MarkIdentityRefreshed clears the rotation flag.
func (c *Controller) MarkIdentityRefreshed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.needsRefresh = false
}

// Snapshot is an immutable point-in-time view of the controller state.
type Snapshot struct {
	CurrentDelay        time.Duration
	ConsecutiveFailures int
	SuccessStreak       int
	Cooldown            bool
	TotalRequests       int64
	SuccessfulRequests  int64
}

// Snapshot returns the current state for observability.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		CurrentDelay:        c.currentDelay,
		ConsecutiveFailures: c.consecutiveFailures,
		SuccessStreak:       c.successStreak,
		Cooldown:            c.cooldown,
		TotalRequests:       c.totalRequests,
		SuccessfulRequests:  c.successfulRequests,
	}
}

// SuccessRate returns the fraction of recorded requests that succeeded.
// Returns 1.0 before any request is recorded.
func (c *Controller) SuccessRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.totalRequests == 0 {
		return 1.0
	}
	return float64(c.successfulRequests) / float64(c.totalRequests)
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
