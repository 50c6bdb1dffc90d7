package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sentiscope/sentiscope/internal/domain"
	apperrors "github.com/sentiscope/sentiscope/internal/platform/errors"
	"github.com/sentiscope/sentiscope/internal/platform/version"
	"github.com/sentiscope/sentiscope/internal/security"
)

func (s *Server) registerAPIRoutes(ipLimiter echo.MiddlewareFunc) {
	api := s.echo.Group("/api/v1", ipLimiter, s.sessionMiddleware)

	api.GET("/health", s.handleAPIHealth)
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/batch", s.handleBatch)
	api.GET("/stats", s.handleStats)
	api.GET("/usage", s.handleUsage)
	api.GET("/history", s.handleHistory)
	api.GET("/events", s.handleEvents)
	api.DELETE("/session", s.handleClearSession)
}

type analyzeRequest struct {
	Text            string `json:"text"`
	IncludeEmotions bool   `json:"include_emotions"`
	IncludeKeywords bool   `json:"include_keywords"`
}

type batchRequest struct {
	Texts           []string `json:"texts"`
	IncludeEmotions bool     `json:"include_emotions"`
	IncludeKeywords bool     `json:"include_keywords"`
}

type apiResponse struct {
	Success          bool      `json:"success"`
	Data             any       `json:"data,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	ProcessingTimeMS float64   `json:"processing_time_ms"`
}

type batchItemResponse struct {
	OriginalText string                  `json:"original_text"`
	Result       *domain.SentimentResult `json:"result,omitempty"`
	Error        string                  `json:"error,omitempty"`
	ErrorKind    string                  `json:"error_kind,omitempty"`
}

type batchResponse struct {
	Success          bool                `json:"success"`
	Results          []batchItemResponse `json:"results"`
	TotalProcessed   int                 `json:"total_processed"`
	Timestamp        time.Time           `json:"timestamp"`
	ProcessingTimeMS float64             `json:"processing_time_ms"`
}

func (s *Server) handleAnalyze(c echo.Context) error {
	started := time.Now()

	id, err := sessionID(c)
	if err != nil {
		return err
	}

	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	opts := domain.AnalyzeOptions{
		IncludeEmotions: req.IncludeEmotions,
		IncludeKeywords: req.IncludeKeywords,
	}
	result, err := s.app.Analyze(c.Request().Context(), id, req.Text, opts)
	if err != nil {
		return err
	}

	return s.respond(c, started, result)
}

func (s *Server) handleBatch(c echo.Context) error {
	started := time.Now()

	id, err := sessionID(c)
	if err != nil {
		return err
	}

	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	opts := domain.AnalyzeOptions{
		IncludeEmotions: req.IncludeEmotions,
		IncludeKeywords: req.IncludeKeywords,
	}
	items, err := s.app.BatchAnalyze(c.Request().Context(), id, req.Texts, opts)
	if err != nil {
		return err
	}

	results := make([]batchItemResponse, 0, len(items))
	for _, item := range items {
		entry := batchItemResponse{OriginalText: item.Text}
		if item.Err != nil {
			entry.Error = item.Err.Message
			entry.ErrorKind = string(item.Err.Kind)
		} else {
			entry.Result = item.Result
		}
		results = append(results, entry)
	}

	// Failed items still count as processed; the batch never aborts.
	response := batchResponse{
		Success:          true,
		Results:          results,
		TotalProcessed:   len(items),
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMS: roundMillis(time.Since(started)),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleStats(c echo.Context) error {
	started := time.Now()

	stats := map[string]any{
		"service": "sentiscope",
		"version": version.Get().Version,
		"features": []string{
			"sentiment_analysis",
			"batch_analysis",
			"emotion_detection",
			"keyword_extraction",
			"history",
			"usage_stats",
		},
		"limits": map[string]any{
			"max_text_length":      security.MaxTextLength,
			"max_batch_size":       s.config.MaxBatchSize,
			"requests_per_minute":  s.config.RateLimitPerMinute,
			"requests_per_hour":    s.config.RateLimitPerHour,
			"cooldown_seconds":     s.config.RateCooldown.Seconds(),
			"session_timeout_mins": s.config.SessionTimeout.Minutes(),
		},
	}
	return s.respond(c, started, stats)
}

func (s *Server) handleUsage(c echo.Context) error {
	started := time.Now()

	id, err := sessionID(c)
	if err != nil {
		return err
	}

	usage, err := s.app.Usage(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return s.respond(c, started, usage)
}

func (s *Server) handleHistory(c echo.Context) error {
	started := time.Now()

	id, err := sessionID(c)
	if err != nil {
		return err
	}

	history, err := s.app.History(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if history == nil {
		history = []domain.SentimentResult{}
	}
	return s.respond(c, started, map[string]any{
		"history": history,
		"count":   len(history),
	})
}

const defaultEventLimit = 20

func (s *Server) handleEvents(c echo.Context) error {
	started := time.Now()

	id, err := sessionID(c)
	if err != nil {
		return err
	}

	limit := defaultEventLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return apperrors.ValidationError("limit must be a positive integer")
		}
		limit = parsed
	}

	events, err := s.app.SecurityEvents(c.Request().Context(), id, limit)
	if err != nil {
		return err
	}
	if events == nil {
		events = []domain.SecurityEvent{}
	}
	return s.respond(c, started, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) handleClearSession(c echo.Context) error {
	started := time.Now()

	id, err := sessionID(c)
	if err != nil {
		return err
	}

	if c.QueryParam("purge") == "true" {
		if err := s.app.DeleteSession(c.Request().Context(), id); err != nil {
			return err
		}
		s.dropTokenCookie(c)
		c.Response().Header().Del(sessionTokenHeader)
		return s.respond(c, started, map[string]string{"status": "deleted"})
	}

	if err := s.app.ClearSession(c.Request().Context(), id); err != nil {
		return err
	}
	return s.respond(c, started, map[string]string{"status": "cleared"})
}

func (s *Server) respond(c echo.Context, started time.Time, data any) error {
	response := apiResponse{
		Success:          true,
		Data:             data,
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMS: roundMillis(time.Since(started)),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func roundMillis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
