package security

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter() (*Limiter, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	return NewLimiter(clock, DefaultLimits()), clock
}

func TestLimiter_AllowsFirstRequest(t *testing.T) {
	limiter, _ := newTestLimiter()
	w := &Window{}

	decision := limiter.Check(w)

	assert.True(t, decision.Allowed)
	assert.Len(t, w.Requests, 1)
}

func TestLimiter_CooldownRejectsRapidRequests(t *testing.T) {
	limiter, clock := newTestLimiter()
	w := &Window{}

	require.True(t, limiter.Check(w).Allowed)

	clock.Advance(1 * time.Second)
	decision := limiter.Check(w)

	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.KindCooldownActive, decision.Kind)
	assert.Equal(t, 1*time.Second, decision.RetryAfter)
	assert.Len(t, w.Requests, 1, "rejected request must not be recorded")
}

func TestLimiter_CooldownExpires(t *testing.T) {
	limiter, clock := newTestLimiter()
	w := &Window{}

	require.True(t, limiter.Check(w).Allowed)
	clock.Advance(2 * time.Second)

	assert.True(t, limiter.Check(w).Allowed)
}

func TestLimiter_PerMinuteLimit(t *testing.T) {
	limiter, clock := newTestLimiter()
	w := &Window{}

	// 10 accepted requests spaced past the cooldown, all within one minute.
	for i := 0; i < 10; i++ {
		require.True(t, limiter.Check(w).Allowed, "request %d should pass", i+1)
		clock.Advance(3 * time.Second)
	}

	decision := limiter.Check(w)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.KindPerMinuteLimitExceeded, decision.Kind)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
}

func TestLimiter_PerMinuteLimitRecoversAfterWindow(t *testing.T) {
	limiter, clock := newTestLimiter()
	w := &Window{}

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Check(w).Allowed)
		clock.Advance(3 * time.Second)
	}
	require.False(t, limiter.Check(w).Allowed)

	// Once the oldest requests age past 60s the minute budget frees up.
	clock.Advance(time.Minute)
	assert.True(t, limiter.Check(w).Allowed)
}

func TestLimiter_PerHourLimit(t *testing.T) {
	limiter, clock := newTestLimiter()
	w := &Window{}

	// Fill the hourly budget while staying under the per-minute limit.
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Check(w).Allowed, "request %d should pass", i+1)
		clock.Advance(7 * time.Second)
	}

	// 100*7s = 700s elapsed, so only a handful of requests fall in the last
	// minute; the hourly count is what rejects now.
	decision := limiter.Check(w)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.KindPerHourLimitExceeded, decision.Kind)
}

func TestLimiter_WindowPrunesOldEntries(t *testing.T) {
	limiter, clock := newTestLimiter()
	w := &Window{}

	require.True(t, limiter.Check(w).Allowed)
	clock.Advance(time.Hour + time.Second)

	require.True(t, limiter.Check(w).Allowed)
	assert.Len(t, w.Requests, 1, "entries older than an hour must be pruned")
}

func TestLimiter_Usage(t *testing.T) {
	limiter, clock := newTestLimiter()
	w := &Window{}

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Check(w).Allowed)
		clock.Advance(3 * time.Second)
	}

	stats := limiter.Usage(w)
	assert.Equal(t, 3, stats.RequestsLastMinute)
	assert.Equal(t, 3, stats.RequestsLastHour)
	assert.Equal(t, 7, stats.RemainingMinute)
	assert.Equal(t, 97, stats.RemainingHour)
	assert.Len(t, w.Requests, 3, "usage must not mutate the window")
}

func TestLimiter_UsageEmptyWindow(t *testing.T) {
	limiter, _ := newTestLimiter()

	stats := limiter.Usage(&Window{})

	assert.Equal(t, 0, stats.RequestsLastMinute)
	assert.Equal(t, 0, stats.RequestsLastHour)
	assert.Equal(t, 10, stats.RemainingMinute)
	assert.Equal(t, 100, stats.RemainingHour)
}
