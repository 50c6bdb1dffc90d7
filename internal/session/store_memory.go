package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/sentiscope/sentiscope/internal/security"
)

const (
	// DefaultTimeout invalidates sessions after an hour of inactivity.
	DefaultTimeout = 60 * time.Minute

	// HistoryLimit bounds the per-session analysis history.
	HistoryLimit = 10
)

type memorySession struct {
	StartedAt    time.Time
	LastActivity time.Time
	Window       security.Window
	History      []domain.SentimentResult
	Events       *security.EventLog
}

// InMemoryStore holds session state in process memory for single-instance
// mode. Handlers run concurrently, so access is serialized with a mutex even
// though each session's state is logically owned by one caller.
type InMemoryStore struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	timeout  time.Duration
	limiter  *security.Limiter
	sessions map[uuid.UUID]*memorySession
}

// NewInMemoryStore creates an in-memory store with the given inactivity
// timeout and rate limits.
func NewInMemoryStore(clock clockwork.Clock, timeout time.Duration, limits security.Limits) *InMemoryStore {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &InMemoryStore{
		clock:    clock,
		timeout:  timeout,
		limiter:  security.NewLimiter(clock, limits),
		sessions: make(map[uuid.UUID]*memorySession),
	}
}

func (s *InMemoryStore) Create(_ context.Context) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	now := s.clock.Now()
	s.sessions[id] = &memorySession{
		StartedAt:    now,
		LastActivity: now,
		Events:       security.NewEventLog(security.DefaultEventLogCapacity),
	}
	return id, nil
}

func (s *InMemoryStore) Touch(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return false, nil
	}
	session.LastActivity = s.clock.Now()
	return true, nil
}

func (s *InMemoryStore) CheckRateLimit(_ context.Context, id uuid.UUID) (domain.RateDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return domain.RateDecision{}, domain.ErrSessionNotFound
	}
	return s.limiter.Check(&session.Window), nil
}

func (s *InMemoryStore) Usage(_ context.Context, id uuid.UUID) (domain.UsageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return domain.UsageStats{}, domain.ErrSessionNotFound
	}
	return s.limiter.Usage(&session.Window), nil
}

func (s *InMemoryStore) AppendHistory(_ context.Context, id uuid.UUID, result domain.SentimentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if len(session.History) >= HistoryLimit {
		session.History = append(session.History[:0], session.History[1:]...)
	}
	session.History = append(session.History, result)
	return nil
}

func (s *InMemoryStore) History(_ context.Context, id uuid.UUID) ([]domain.SentimentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]domain.SentimentResult, len(session.History))
	copy(out, session.History)
	return out, nil
}

func (s *InMemoryStore) LogEvent(_ context.Context, id uuid.UUID, eventType, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Events.Append(domain.SecurityEvent{
		Timestamp: s.clock.Now(),
		Type:      eventType,
		Details:   details,
	})
	return nil
}

func (s *InMemoryStore) RecentEvents(_ context.Context, id uuid.UUID, n int) ([]domain.SecurityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Events.Recent(n), nil
}

func (s *InMemoryStore) Clear(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Window = security.Window{}
	session.History = nil
	session.Events.Reset()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// PruneExpired drops sessions past the inactivity timeout and returns how
// many were removed. Called periodically from the eviction ticker.
func (s *InMemoryStore) PruneExpired(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	pruned := 0
	for id, session := range s.sessions {
		if now.Sub(session.LastActivity) > s.timeout {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned
}

// StartEvictionTimer launches a background pruning loop and returns a stop
// function.
func (s *InMemoryStore) StartEvictionTimer(interval time.Duration) func() {
	stop := make(chan struct{})
	go func() {
		ticker := s.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				s.PruneExpired(context.Background())
			case <-stop:
				return
			}
		}
	}()
	return func() { close(stop) }
}

// lookup returns the session if it exists and has not expired. Expired
// sessions are dropped on sight: missing and expired are both invalid.
// Caller holds the mutex.
func (s *InMemoryStore) lookup(id uuid.UUID) (*memorySession, bool) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.clock.Now().Sub(session.LastActivity) > s.timeout {
		delete(s.sessions, id)
		return nil, false
	}
	return session, true
}
