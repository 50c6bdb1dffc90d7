package httpserver

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sentiscope/sentiscope/internal/adapter/metrics"
	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/sentiscope/sentiscope/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	ensureSessionFn  func(ctx context.Context, token string) (uuid.UUID, bool, error)
	analyzeFn        func(ctx context.Context, sessionID uuid.UUID, text string, opts domain.AnalyzeOptions) (domain.SentimentResult, error)
	batchAnalyzeFn   func(ctx context.Context, sessionID uuid.UUID, texts []string, opts domain.AnalyzeOptions) ([]domain.BatchItem, error)
	usageFn          func(ctx context.Context, sessionID uuid.UUID) (domain.UsageStats, error)
	historyFn        func(ctx context.Context, sessionID uuid.UUID) ([]domain.SentimentResult, error)
	securityEventsFn func(ctx context.Context, sessionID uuid.UUID, n int) ([]domain.SecurityEvent, error)
	clearSessionFn   func(ctx context.Context, sessionID uuid.UUID) error
	deleteSessionFn  func(ctx context.Context, sessionID uuid.UUID) error
}

var testSessionID = uuid.MustParse("7f9c24e5-2c4a-4b8e-9d3f-1a2b3c4d5e6f")

func positiveResult() domain.SentimentResult {
	return domain.SentimentResult{
		Label:        domain.LabelPositive,
		Confidence:   66.5,
		Polarity:     0.7,
		Subjectivity: 0.9,
		Emoji:        "😊",
		Color:        "#10b981",
		TextLength:   19,
		WordCount:    4,
		AnalyzedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockAppService) EnsureSession(ctx context.Context, token string) (uuid.UUID, bool, error) {
	if m.ensureSessionFn != nil {
		return m.ensureSessionFn(ctx, token)
	}
	return testSessionID, false, nil
}

func (m *mockAppService) Analyze(ctx context.Context, sessionID uuid.UUID, text string, opts domain.AnalyzeOptions) (domain.SentimentResult, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, sessionID, text, opts)
	}
	return positiveResult(), nil
}

func (m *mockAppService) BatchAnalyze(ctx context.Context, sessionID uuid.UUID, texts []string, opts domain.AnalyzeOptions) ([]domain.BatchItem, error) {
	if m.batchAnalyzeFn != nil {
		return m.batchAnalyzeFn(ctx, sessionID, texts, opts)
	}
	items := make([]domain.BatchItem, 0, len(texts))
	for _, text := range texts {
		result := positiveResult()
		items = append(items, domain.BatchItem{Text: text, Result: &result})
	}
	return items, nil
}

func (m *mockAppService) Usage(ctx context.Context, sessionID uuid.UUID) (domain.UsageStats, error) {
	if m.usageFn != nil {
		return m.usageFn(ctx, sessionID)
	}
	return domain.UsageStats{RequestsLastMinute: 3, RequestsLastHour: 7, RemainingMinute: 7, RemainingHour: 93}, nil
}

func (m *mockAppService) History(ctx context.Context, sessionID uuid.UUID) ([]domain.SentimentResult, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockAppService) SecurityEvents(ctx context.Context, sessionID uuid.UUID, n int) ([]domain.SecurityEvent, error) {
	if m.securityEventsFn != nil {
		return m.securityEventsFn(ctx, sessionID, n)
	}
	return nil, nil
}

func (m *mockAppService) ClearSession(ctx context.Context, sessionID uuid.UUID) error {
	if m.clearSessionFn != nil {
		return m.clearSessionFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAppService) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	if m.deleteSessionFn != nil {
		return m.deleteSessionFn(ctx, sessionID)
	}
	return nil
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	registry := prometheus.NewRegistry()

	srv := &Server{
		echo: echo.New(),
		config: &config.Config{
			AppEnv:             "test",
			Port:               "8080",
			SessionSecret:      "test-secret",
			SessionTimeout:     time.Hour,
			RateCooldown:       2 * time.Second,
			RateLimitPerMinute: 10,
			RateLimitPerHour:   100,
			IPRatePerSecond:    1000,
			IPRateBurst:        1000,
			MaxBatchSize:       100,
		},
		app:          app,
		registry:     registry,
		httpMetrics:  metrics.NewHTTPMetrics(registry),
		sessionStore: store,
		startTime:    time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}
