package ratelimit

import (
	"testing"
	"time"

	"github.com/mouguu/reddit-crawler/config"
)

func newTestController() (*Controller, *time.Time) {
	c := NewController(config.DefaultRate())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.randFloat = func() float64 { return 0.5 }
	return c, &now
}

func TestController_DelayStaysClamped(t *testing.T) {
	c, _ := newTestController()
	cfg := c.cfg

	// Arbitrary interleaving of outcomes must never push the delay
	// outside [MinDelay, MaxDelay].
	ops := []func(){c.RecordSuccess, c.RecordRateLimit, c.RecordOtherError}
	for i := range 200 {
		ops[i%3]()
		snap := c.Snapshot()
		if snap.CurrentDelay < cfg.MinDelay.Duration || snap.CurrentDelay > cfg.MaxDelay.Duration {
			t.Fatalf("op %d: delay %v outside [%v, %v]",
				i, snap.CurrentDelay, cfg.MinDelay.Duration, cfg.MaxDelay.Duration)
		}
	}

	// Sustained failures saturate at MaxDelay.
	for range 20 {
		c.RecordRateLimit()
	}
	if got := c.Snapshot().CurrentDelay; got != cfg.MaxDelay.Duration {
		t.Errorf("expected saturation at %v, got %v", cfg.MaxDelay.Duration, got)
	}
}

func TestController_CooldownEntryAfterTwoRateLimits(t *testing.T) {
	c, _ := newTestController()

	c.RecordRateLimit()
	if c.InCooldown() {
		t.Fatal("cooldown after a single rate limit")
	}
	c.RecordRateLimit()
	if !c.InCooldown() {
		t.Fatal("expected cooldown after 2 consecutive rate limits")
	}
	if !c.NeedsIdentityRefresh() {
		t.Error("cooldown entry should flag identity refresh")
	}

	// Re-entering while cooling is a no-op.
	started := c.cooldownStartedAt
	c.RecordRateLimit()
	if c.cooldownStartedAt != started {
		t.Error("cooldown entry should be idempotent")
	}
}

func TestController_CooldownExitAfterThreeSuccesses(t *testing.T) {
	c, _ := newTestController()

	c.RecordRateLimit()
	c.RecordRateLimit()
	if !c.InCooldown() {
		t.Fatal("expected cooldown")
	}

	c.RecordSuccess()
	c.RecordSuccess()
	if !c.InCooldown() {
		t.Fatal("cooldown ended too early")
	}
	c.RecordSuccess()
	if c.InCooldown() {
		t.Fatal("expected cooldown exit after 3 successes")
	}
	if c.NeedsIdentityRefresh() {
		t.Error("cooldown exit should clear the refresh flag")
	}
}

func TestController_DelayDoublesAfterRecentFailure(t *testing.T) {
	c, now := newTestController()

	c.RecordRateLimit()
	base := c.Snapshot().CurrentDelay
	if got := c.Delay(); got != base*2 {
		t.Errorf("recent failure: expected %v, got %v", base*2, got)
	}

	// Past the window the doubling no longer applies.
	*now = now.Add(61 * time.Second)
	if got := c.Delay(); got != base {
		t.Errorf("stale failure: expected %v, got %v", base, got)
	}
}

func TestController_DelayFlooredAtMin(t *testing.T) {
	c, _ := newTestController()
	c.currentDelay = 100 * time.Millisecond // below MinDelay, forced for the floor check
	if got := c.Delay(); got != c.cfg.MinDelay.Duration {
		t.Errorf("expected floor %v, got %v", c.cfg.MinDelay.Duration, got)
	}
}

func TestController_GradualRecovery(t *testing.T) {
	c, now := newTestController()

	c.RecordRateLimit()
	*now = now.Add(2 * time.Minute)
	inflated := c.Snapshot().CurrentDelay

	// The streak must pass RecoveryStreak before decay starts.
	for range c.cfg.RecoveryStreak + 1 {
		c.RecordSuccess()
	}
	if got := c.Snapshot().CurrentDelay; got >= inflated {
		t.Errorf("expected decay below %v, got %v", inflated, got)
	}

	// Decay never goes under the recovery floor.
	for range 500 {
		c.RecordSuccess()
	}
	if got := c.Snapshot().CurrentDelay; got < c.cfg.RecoveryFloor.Duration {
		t.Errorf("decay passed the floor: %v < %v", got, c.cfg.RecoveryFloor.Duration)
	}
}

func TestController_ShouldSkipStrategy(t *testing.T) {
	c, _ := newTestController()

	for range 4 {
		c.RecordRateLimit()
	}
	if c.ShouldSkipStrategy() {
		t.Fatal("skip signaled below threshold")
	}
	c.RecordRateLimit()
	if !c.ShouldSkipStrategy() {
		t.Fatal("expected skip signal at 5 consecutive rate limits")
	}
	c.RecordSuccess()
	if c.ShouldSkipStrategy() {
		t.Fatal("success should reset the skip signal")
	}
}

func TestController_CooldownWaitBands(t *testing.T) {
	c, _ := newTestController()

	if got := c.CooldownWait(); got != 0 {
		t.Fatalf("wait outside cooldown should be 0, got %v", got)
	}

	tests := []struct {
		failures int
		lo, hi   time.Duration
	}{
		{2, 10 * time.Second, 20 * time.Second},
		{5, 20 * time.Second, 40 * time.Second},
		{7, 40 * time.Second, 60 * time.Second},
	}
	for _, tt := range tests {
		c.consecutiveFailures = tt.failures
		c.cooldown = true
		got := c.CooldownWait()
		if got < tt.lo || got > tt.hi {
			t.Errorf("failures=%d: wait %v outside [%v, %v]", tt.failures, got, tt.lo, tt.hi)
		}
	}
}

func TestController_SearchDelayFactor(t *testing.T) {
	c, _ := newTestController()
	if got, want := c.SearchDelay(), c.Delay()*2; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestController_SuccessRate(t *testing.T) {
	c, _ := newTestController()
	if got := c.SuccessRate(); got != 1.0 {
		t.Fatalf("empty controller rate should be 1.0, got %f", got)
	}
	c.RecordSuccess()
	c.RecordSuccess()
	c.RecordRateLimit()
	c.RecordOtherError()
	if got := c.SuccessRate(); got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}
}
