package security

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sentiscope/sentiscope/internal/domain"
)

const (
	// WindowDuration is how long request timestamps are retained.
	WindowDuration = time.Hour

	minuteWindow = time.Minute
)

// Limits holds the per-session rate-limit thresholds.
type Limits struct {
	Cooldown  time.Duration
	PerMinute int
	PerHour   int
}

// DefaultLimits returns the service defaults: 2s cooldown, 10/minute, 100/hour.
func DefaultLimits() Limits {
	return Limits{Cooldown: 2 * time.Second, PerMinute: 10, PerHour: 100}
}

// Window is the per-session sliding window of accepted request timestamps,
// insertion order chronological, pruned to the last hour. Owned exclusively
// by one session; callers serialize access.
type Window struct {
	Requests    []time.Time
	LastRequest time.Time
}

// Limiter applies cooldown and sliding-window limits to a session's Window.
// A sliding window avoids the burst-at-boundary abuse of fixed buckets; the
// cooldown is a cheap first-line check before the window scans.
type Limiter struct {
	clock  clockwork.Clock
	limits Limits
}

// NewLimiter creates a limiter with the given thresholds.
func NewLimiter(clock clockwork.Clock, limits Limits) *Limiter {
	return &Limiter{clock: clock, limits: limits}
}

// Check prunes the window, applies cooldown, per-minute and per-hour limits
// in that order, and records the request when it is allowed.
func (l *Limiter) Check(w *Window) domain.RateDecision {
	now := l.clock.Now()
	w.prune(now)

	if !w.LastRequest.IsZero() {
		if since := now.Sub(w.LastRequest); since < l.limits.Cooldown {
			return domain.RateDecision{
				Kind:       domain.KindCooldownActive,
				RetryAfter: l.limits.Cooldown - since,
			}
		}
	}

	if minuteCount := w.countSince(now.Add(-minuteWindow)); minuteCount >= l.limits.PerMinute {
		return domain.RateDecision{
			Kind:       domain.KindPerMinuteLimitExceeded,
			RetryAfter: w.oldestSince(now.Add(-minuteWindow)).Add(minuteWindow).Sub(now),
		}
	}

	// Post-prune, the full window holds exactly the last hour.
	if len(w.Requests) >= l.limits.PerHour {
		return domain.RateDecision{
			Kind:       domain.KindPerHourLimitExceeded,
			RetryAfter: w.Requests[0].Add(WindowDuration).Sub(now),
		}
	}

	w.Requests = append(w.Requests, now)
	w.LastRequest = now
	return domain.RateDecision{Allowed: true}
}

// Usage derives read-only stats from the window without mutating it.
func (l *Limiter) Usage(w *Window) domain.UsageStats {
	now := l.clock.Now()

	lastMinute := w.countSince(now.Add(-minuteWindow))
	lastHour := w.countSince(now.Add(-WindowDuration))

	return domain.UsageStats{
		RequestsLastMinute: lastMinute,
		RequestsLastHour:   lastHour,
		RemainingMinute:    max(0, l.limits.PerMinute-lastMinute),
		RemainingHour:      max(0, l.limits.PerHour-lastHour),
	}
}

func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-WindowDuration)
	i := 0
	for i < len(w.Requests) && !w.Requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.Requests = append(w.Requests[:0], w.Requests[i:]...)
	}
}

func (w *Window) countSince(cutoff time.Time) int {
	count := 0
	for _, t := range w.Requests {
		if t.After(cutoff) {
			count++
		}
	}
	return count
}

// oldestSince returns the earliest timestamp after cutoff. Callers only use
// it when countSince(cutoff) > 0.
func (w *Window) oldestSince(cutoff time.Time) time.Time {
	for _, t := range w.Requests {
		if t.After(cutoff) {
			return t
		}
	}
	return time.Time{}
}
