package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/sentiscope/sentiscope/internal/security"
)

// RedisStore shares session state across instances. The rate-limit window is
// a sorted set of request timestamps, history and security log are capped
// lists; all keys carry the session TTL so expired sessions vanish on their
// own.
type RedisStore struct {
	rdb     *goredis.Client
	clock   clockwork.Clock
	timeout time.Duration
	limits  security.Limits
}

// NewRedisStore creates a Redis-backed store with the given inactivity
// timeout and rate limits.
func NewRedisStore(rdb *goredis.Client, clock clockwork.Clock, timeout time.Duration, limits security.Limits) *RedisStore {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RedisStore{rdb: rdb, clock: clock, timeout: timeout, limits: limits}
}

// NewRedisClient creates a go-redis client from a URL and verifies the
// connection.
func NewRedisClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) metaKey(id uuid.UUID) string    { return "session:" + id.String() + ":meta" }
func (s *RedisStore) windowKey(id uuid.UUID) string  { return "session:" + id.String() + ":window" }
func (s *RedisStore) historyKey(id uuid.UUID) string { return "session:" + id.String() + ":history" }
func (s *RedisStore) eventsKey(id uuid.UUID) string  { return "session:" + id.String() + ":events" }

func (s *RedisStore) Create(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	now := s.clock.Now().UnixMilli()

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.metaKey(id), "started_at_ms", now, "last_activity_ms", now)
	pipe.PExpire(ctx, s.metaKey(id), s.timeout)
	if _, err := pipe.Exec(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

func (s *RedisStore) Touch(ctx context.Context, id uuid.UUID) (bool, error) {
	lastStr, err := s.rdb.HGet(ctx, s.metaKey(id), "last_activity_ms").Result()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}

	last, err := strconv.ParseInt(lastStr, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt session timestamp: %w", err)
	}

	now := s.clock.Now()
	if now.Sub(time.UnixMilli(last)) > s.timeout {
		// The TTL normally handles this; an injected clock ahead of Redis
		// still fails closed.
		_ = s.Delete(ctx, id)
		return false, nil
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.metaKey(id), "last_activity_ms", now.UnixMilli())
	for _, key := range []string{s.metaKey(id), s.windowKey(id), s.historyKey(id), s.eventsKey(id)} {
		pipe.PExpire(ctx, key, s.timeout)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to refresh session: %w", err)
	}
	return true, nil
}

func (s *RedisStore) CheckRateLimit(ctx context.Context, id uuid.UUID) (domain.RateDecision, error) {
	exists, err := s.rdb.Exists(ctx, s.metaKey(id)).Result()
	if err != nil {
		return domain.RateDecision{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if exists == 0 {
		return domain.RateDecision{}, domain.ErrSessionNotFound
	}

	raw, err := rateLimitScript.Run(ctx, s.rdb,
		[]string{s.windowKey(id), s.metaKey(id)},
		s.clock.Now().UnixMilli(),
		s.limits.Cooldown.Milliseconds(),
		s.limits.PerMinute,
		s.limits.PerHour,
		s.timeout.Milliseconds(),
		uuid.NewString(),
	).Slice()
	if err != nil {
		return domain.RateDecision{}, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(raw) != 3 {
		return domain.RateDecision{}, fmt.Errorf("unexpected rate limit script reply: %v", raw)
	}

	allowed, _ := raw[0].(int64)
	reason, _ := raw[1].(string)
	retryMs, _ := raw[2].(int64)

	decision := domain.RateDecision{
		Allowed:    allowed == 1,
		RetryAfter: time.Duration(retryMs) * time.Millisecond,
	}
	switch reason {
	case "cooldown":
		decision.Kind = domain.KindCooldownActive
	case "minute":
		decision.Kind = domain.KindPerMinuteLimitExceeded
	case "hour":
		decision.Kind = domain.KindPerHourLimitExceeded
	}
	return decision, nil
}

func (s *RedisStore) Usage(ctx context.Context, id uuid.UUID) (domain.UsageStats, error) {
	exists, err := s.rdb.Exists(ctx, s.metaKey(id)).Result()
	if err != nil {
		return domain.UsageStats{}, fmt.Errorf("usage lookup failed: %w", err)
	}
	if exists == 0 {
		return domain.UsageStats{}, domain.ErrSessionNotFound
	}

	now := s.clock.Now().UnixMilli()

	pipe := s.rdb.Pipeline()
	minuteCmd := pipe.ZCount(ctx, s.windowKey(id), strconv.FormatInt(now-60_000+1, 10), "+inf")
	hourCmd := pipe.ZCount(ctx, s.windowKey(id), strconv.FormatInt(now-3_600_000+1, 10), "+inf")
	if _, err := pipe.Exec(ctx); err != nil && err != goredis.Nil {
		return domain.UsageStats{}, fmt.Errorf("usage lookup failed: %w", err)
	}

	lastMinute := int(minuteCmd.Val())
	lastHour := int(hourCmd.Val())
	return domain.UsageStats{
		RequestsLastMinute: lastMinute,
		RequestsLastHour:   lastHour,
		RemainingMinute:    max(0, s.limits.PerMinute-lastMinute),
		RemainingHour:      max(0, s.limits.PerHour-lastHour),
	}, nil
}

func (s *RedisStore) AppendHistory(ctx context.Context, id uuid.UUID, result domain.SentimentResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, s.historyKey(id), payload)
	pipe.LTrim(ctx, s.historyKey(id), int64(-HistoryLimit), -1)
	pipe.PExpire(ctx, s.historyKey(id), s.timeout)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, id uuid.UUID) ([]domain.SentimentResult, error) {
	entries, err := s.rdb.LRange(ctx, s.historyKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	results := make([]domain.SentimentResult, 0, len(entries))
	for _, entry := range entries {
		var result domain.SentimentResult
		if err := json.Unmarshal([]byte(entry), &result); err != nil {
			return nil, fmt.Errorf("corrupt history entry: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *RedisStore) LogEvent(ctx context.Context, id uuid.UUID, eventType, details string) error {
	payload, err := json.Marshal(domain.SecurityEvent{
		Timestamp: s.clock.Now(),
		Type:      eventType,
		Details:   details,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, s.eventsKey(id), payload)
	pipe.LTrim(ctx, s.eventsKey(id), int64(-security.DefaultEventLogCapacity), -1)
	pipe.PExpire(ctx, s.eventsKey(id), s.timeout)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}

func (s *RedisStore) RecentEvents(ctx context.Context, id uuid.UUID, n int) ([]domain.SecurityEvent, error) {
	if n <= 0 {
		return nil, nil
	}

	entries, err := s.rdb.LRange(ctx, s.eventsKey(id), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	events := make([]domain.SecurityEvent, 0, len(entries))
	for _, entry := range entries {
		var event domain.SecurityEvent
		if err := json.Unmarshal([]byte(entry), &event); err != nil {
			return nil, fmt.Errorf("corrupt event entry: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *RedisStore) Clear(ctx context.Context, id uuid.UUID) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.windowKey(id), s.historyKey(id), s.eventsKey(id))
	pipe.HDel(ctx, s.metaKey(id), "last_request_ms")
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rdb.Del(ctx, s.metaKey(id), s.windowKey(id), s.historyKey(id), s.eventsKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
