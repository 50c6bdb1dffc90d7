package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sentiscope/sentiscope/internal/adapter/metrics"
	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/sentiscope/sentiscope/internal/platform/config"
)

type appService interface {
	EnsureSession(ctx context.Context, token string) (uuid.UUID, bool, error)
	Analyze(ctx context.Context, sessionID uuid.UUID, text string, opts domain.AnalyzeOptions) (domain.SentimentResult, error)
	BatchAnalyze(ctx context.Context, sessionID uuid.UUID, texts []string, opts domain.AnalyzeOptions) ([]domain.BatchItem, error)
	Usage(ctx context.Context, sessionID uuid.UUID) (domain.UsageStats, error)
	History(ctx context.Context, sessionID uuid.UUID) ([]domain.SentimentResult, error)
	SecurityEvents(ctx context.Context, sessionID uuid.UUID, n int) ([]domain.SecurityEvent, error)
	ClearSession(ctx context.Context, sessionID uuid.UUID) error
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app appService

	registry     *prometheus.Registry
	httpMetrics  *metrics.HTTPMetrics
	sessionStore *sessions.CookieStore
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, registry *prometheus.Registry, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		registry:     registry,
		httpMetrics:  metrics.NewHTTPMetrics(registry),
		sessionStore: setupSessionStore(cfg),
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys
const (
	sessionName     = "sentiscope-session"
	sessionKeyToken = "token"

	// sessionTokenHeader carries the session token for non-browser clients.
	// The current token is always echoed back on this header.
	sessionTokenHeader = "X-Session-Token"
)

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTimeout.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
