package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/sentiscope/sentiscope/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*InMemoryStore, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return NewInMemoryStore(clock, DefaultTimeout, security.DefaultLimits()), clock
}

func TestInMemoryStore_CreateAndTouch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	ok, err := store.Touch(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryStore_TouchUnknownSession(t *testing.T) {
	store, _ := newTestStore(t)

	ok, err := store.Touch(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.False(t, ok, "unknown sessions must be invalid")
}

func TestInMemoryStore_SessionExpiresAfterTimeout(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	clock.Advance(61 * time.Minute)

	ok, err := store.Touch(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "session must be invalid after 61 minutes of inactivity")
}

func TestInMemoryStore_TouchRefreshesActivityClock(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	// Keep touching within the timeout; the session stays alive far past
	// the original 60 minutes.
	for i := 0; i < 5; i++ {
		clock.Advance(50 * time.Minute)
		ok, err := store.Touch(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestInMemoryStore_RateLimitMissingSession(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.CheckRateLimit(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestInMemoryStore_RateLimitEleventhRequestRejected(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		decision, err := store.CheckRateLimit(ctx, id)
		require.NoError(t, err)
		require.True(t, decision.Allowed, "request %d should pass", i+1)
		clock.Advance(3 * time.Second)
	}

	decision, err := store.CheckRateLimit(ctx, id)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.KindPerMinuteLimitExceeded, decision.Kind)
}

func TestInMemoryStore_HistoryBounded(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	for i := 0; i < HistoryLimit+5; i++ {
		require.NoError(t, store.AppendHistory(ctx, id, domain.SentimentResult{
			Label:      domain.LabelPositive,
			TextLength: i,
		}))
	}

	history, err := store.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, HistoryLimit, "history must never exceed its bound")
	assert.Equal(t, 5, history[0].TextLength, "oldest entries evicted first")
	assert.Equal(t, HistoryLimit+4, history[HistoryLimit-1].TextLength)
}

func TestInMemoryStore_EventLogBounded(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	for i := 0; i < security.DefaultEventLogCapacity+10; i++ {
		require.NoError(t, store.LogEvent(ctx, id, domain.EventAnalysisSuccess, fmt.Sprintf("event-%d", i)))
	}

	events, err := store.RecentEvents(ctx, id, security.DefaultEventLogCapacity+10)
	require.NoError(t, err)
	require.Len(t, events, security.DefaultEventLogCapacity)
	assert.Equal(t, "event-10", events[0].Details)
	assert.Equal(t, fmt.Sprintf("event-%d", security.DefaultEventLogCapacity+9), events[len(events)-1].Details)
}

func TestInMemoryStore_ClearResetsStateKeepsSession(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	decision, err := store.CheckRateLimit(ctx, id)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.NoError(t, store.AppendHistory(ctx, id, domain.SentimentResult{}))
	require.NoError(t, store.LogEvent(ctx, id, domain.EventAnalysisSuccess, "ok"))

	require.NoError(t, store.Clear(ctx, id))

	history, err := store.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)

	events, err := store.RecentEvents(ctx, id, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	usage, err := store.Usage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.RequestsLastMinute)

	// Clearing also drops the cooldown marker.
	clock.Advance(time.Millisecond)
	decision, err = store.CheckRateLimit(ctx, id)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestInMemoryStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))

	ok, err := store.Touch(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryStore_PruneExpired(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	stale, err := store.Create(ctx)
	require.NoError(t, err)

	clock.Advance(45 * time.Minute)
	fresh, err := store.Create(ctx)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)

	pruned := store.PruneExpired(ctx)
	assert.Equal(t, 1, pruned)

	ok, err := store.Touch(ctx, stale)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Touch(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, ok)
}
