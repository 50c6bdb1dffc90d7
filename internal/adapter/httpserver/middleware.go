package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sentiscope/sentiscope/internal/domain"
	"github.com/sentiscope/sentiscope/internal/platform/correlation"
	apperrors "github.com/sentiscope/sentiscope/internal/platform/errors"
)

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// ErrorHandlingMiddleware converts handler errors into structured JSON
// responses. Domain rejections keep their kind and message; everything else
// is surfaced as a generic internal error.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			structuredErr := toStructuredError(err)
			logError(c, structuredErr)

			var de *domain.Error
			if errors.As(err, &de) && de.RetryAfter > 0 {
				seconds := int(math.Ceil(de.RetryAfter.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
			}

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

// toStructuredError maps domain rejections onto HTTP error categories:
// validation and spam are 400, rate limits 429, session loss 404, analysis
// failures 500 without internal detail.
func toStructuredError(err error) *apperrors.Error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return apperrors.NotFoundError("session not found")
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		return apperrors.AsStructuredError(err)
	}

	switch {
	case de.IsRateLimit():
		rateErr := apperrors.RateLimitedError(de.Message).WithField("kind", string(de.Kind))
		if de.RetryAfter > 0 {
			rateErr = rateErr.WithField("retry_after_seconds", int(math.Ceil(de.RetryAfter.Seconds())))
		}
		return rateErr
	case de.IsValidation(), de.Kind == domain.KindSpamDetected:
		return apperrors.ValidationError(de.Message).WithField("kind", string(de.Kind))
	default:
		return apperrors.InternalError(de.Message, nil).WithField("kind", string(de.Kind))
	}
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	if sessionID := c.Get(contextKeySessionID); sessionID != nil {
		attrs = append(attrs, "session_id", fmt.Sprint(sessionID))
	}

	switch err.Type {
	case apperrors.TypeValidation:
		slog.Info("Validation error", attrs...)
	case apperrors.TypeRateLimited:
		slog.Info("Rate limited", attrs...)
	case apperrors.TypeNotFound:
		slog.Info("Not found", attrs...)
	case apperrors.TypeExternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("External service error", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Internal error", attrs...)
	}
}
