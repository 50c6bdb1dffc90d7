package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sentiscope/sentiscope/internal/adapter/metrics"
	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/sentiscope/sentiscope/internal/sentiment"
)

// Service orchestrates all use cases. Every analysis request flows through
// the same gate order: session, rate limit, scoring; every rejection is
// recorded in the session's security log before it is returned.
type Service struct {
	store        domain.SessionStore
	scorer       *sentiment.Scorer
	metrics      *metrics.AnalysisMetrics
	maxBatchSize int
}

// NewService creates the application layer service.
func NewService(store domain.SessionStore, scorer *sentiment.Scorer, m *metrics.AnalysisMetrics, maxBatchSize int) *Service {
	return &Service{
		store:        store,
		scorer:       scorer,
		metrics:      m,
		maxBatchSize: maxBatchSize,
	}
}

// EnsureSession resolves a client-presented token to a live session,
// creating a fresh one when the token is absent, malformed, or expired.
// The returned bool reports whether a new session was issued.
func (s *Service) EnsureSession(ctx context.Context, token string) (uuid.UUID, bool, error) {
	if token != "" {
		id, err := uuid.Parse(token)
		if err == nil {
			valid, err := s.store.Touch(ctx, id)
			if err != nil {
				return uuid.Nil, false, err
			}
			if valid {
				return id, false, nil
			}
		}
	}

	id, err := s.store.Create(ctx)
	if err != nil {
		return uuid.Nil, false, err
	}
	slog.Debug("Issued new session", "session_id", id.String())
	return id, true, nil
}

// Analyze runs the full pipeline for one text on behalf of a session.
// Rejections come back as *domain.Error; store failures as plain errors.
func (s *Service) Analyze(ctx context.Context, sessionID uuid.UUID, text string, opts domain.AnalyzeOptions) (domain.SentimentResult, error) {
	if err := s.checkRateLimit(ctx, sessionID); err != nil {
		return domain.SentimentResult{}, err
	}

	timer := prometheus.NewTimer(s.metrics.AnalysisDuration)
	result, err := s.scorer.Analyze(ctx, text, opts)
	timer.ObserveDuration()

	if err != nil {
		s.recordRejection(ctx, sessionID, err)
		return domain.SentimentResult{}, err
	}

	s.metrics.AnalysesTotal.WithLabelValues(string(result.Label)).Inc()

	if err := s.store.AppendHistory(ctx, sessionID, result); err != nil {
		slog.Error("Failed to append analysis history", "session_id", sessionID.String(), "error", err)
	}
	s.logEvent(ctx, sessionID, domain.EventAnalysisSuccess,
		fmt.Sprintf("analyzed %d chars as %s", result.TextLength, result.Label))

	return result, nil
}

// BatchAnalyze analyzes up to the configured maximum of texts, charging the
// session one rate-limit unit for the whole batch. Items fail independently.
func (s *Service) BatchAnalyze(ctx context.Context, sessionID uuid.UUID, texts []string, opts domain.AnalyzeOptions) ([]domain.BatchItem, error) {
	if len(texts) == 0 {
		return nil, domain.NewError(domain.KindEmptyInput, "Batch contains no texts.")
	}
	if len(texts) > s.maxBatchSize {
		err := domain.NewError(domain.KindBatchTooLarge,
			fmt.Sprintf("Batch too large. Maximum %d texts per request.", s.maxBatchSize))
		s.recordRejection(ctx, sessionID, err)
		return nil, err
	}

	if err := s.checkRateLimit(ctx, sessionID); err != nil {
		return nil, err
	}

	s.metrics.BatchSize.Observe(float64(len(texts)))

	items := s.scorer.BatchAnalyze(ctx, texts, opts)

	succeeded, failed := 0, 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			s.metrics.RejectionsTotal.WithLabelValues(string(item.Err.Kind)).Inc()
			continue
		}
		succeeded++
		s.metrics.AnalysesTotal.WithLabelValues(string(item.Result.Label)).Inc()
		if err := s.store.AppendHistory(ctx, sessionID, *item.Result); err != nil {
			slog.Error("Failed to append analysis history", "session_id", sessionID.String(), "error", err)
		}
	}

	s.logEvent(ctx, sessionID, domain.EventAnalysisSuccess,
		fmt.Sprintf("batch of %d: %d analyzed, %d rejected", len(items), succeeded, failed))

	return items, nil
}

// Usage reports the session's rate-limit consumption without charging it.
func (s *Service) Usage(ctx context.Context, sessionID uuid.UUID) (domain.UsageStats, error) {
	return s.store.Usage(ctx, sessionID)
}

// History returns the session's recent analyses, most recent last.
func (s *Service) History(ctx context.Context, sessionID uuid.UUID) ([]domain.SentimentResult, error) {
	return s.store.History(ctx, sessionID)
}

// SecurityEvents returns up to n recent security log entries, most recent last.
func (s *Service) SecurityEvents(ctx context.Context, sessionID uuid.UUID, n int) ([]domain.SecurityEvent, error) {
	return s.store.RecentEvents(ctx, sessionID, n)
}

// ClearSession wipes the session's history, security log and rate window
// while keeping the session itself alive.
func (s *Service) ClearSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return err
	}
	s.logEvent(ctx, sessionID, domain.EventSessionCleared, "session state cleared")
	return nil
}

// DeleteSession removes the session entirely.
func (s *Service) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return s.store.Delete(ctx, sessionID)
}

// checkRateLimit charges one unit and converts a denial into a tagged error
// carrying the retry hint. The denial is logged to the security log.
func (s *Service) checkRateLimit(ctx context.Context, sessionID uuid.UUID) error {
	decision, err := s.store.CheckRateLimit(ctx, sessionID)
	if err != nil {
		return err
	}
	if decision.Allowed {
		return nil
	}

	s.metrics.RejectionsTotal.WithLabelValues(string(decision.Kind)).Inc()
	s.logEvent(ctx, sessionID, domain.EventRateLimited, string(decision.Kind))

	return &domain.Error{
		Kind:       decision.Kind,
		Message:    rateLimitMessage(decision.Kind),
		RetryAfter: decision.RetryAfter,
	}
}

// recordRejection mirrors a scorer rejection into metrics and the security log.
func (s *Service) recordRejection(ctx context.Context, sessionID uuid.UUID, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		return
	}

	s.metrics.RejectionsTotal.WithLabelValues(string(de.Kind)).Inc()

	eventType := domain.EventAnalysisError
	switch {
	case de.Kind == domain.KindSpamDetected:
		eventType = domain.EventSpamDetected
	case de.IsValidation():
		eventType = domain.EventValidationError
	}
	s.logEvent(ctx, sessionID, eventType, string(de.Kind))
}

func (s *Service) logEvent(ctx context.Context, sessionID uuid.UUID, eventType, details string) {
	if err := s.store.LogEvent(ctx, sessionID, eventType, details); err != nil {
		slog.Error("Failed to record security event", "session_id", sessionID.String(),
			"event_type", eventType, "error", err)
	}
}

func rateLimitMessage(kind domain.ErrorKind) string {
	switch kind {
	case domain.KindCooldownActive:
		return "Please wait before submitting another request."
	case domain.KindPerMinuteLimitExceeded:
		return "Rate limit exceeded. Too many requests in the last minute."
	case domain.KindPerHourLimitExceeded:
		return "Hourly rate limit exceeded. Please try again later."
	default:
		return "Too many requests."
	}
}
