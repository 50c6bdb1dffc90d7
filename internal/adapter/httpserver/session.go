package httpserver

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	apperrors "github.com/sentiscope/sentiscope/internal/platform/errors"
)

const contextKeySessionID = "sessionID"

// sessionMiddleware resolves the caller's session before any API handler
// runs. The token is taken from the X-Session-Token header first, then from
// the signed browser cookie. An absent, malformed or expired token gets a
// fresh session; the effective token is echoed on the response header and
// re-written into the cookie.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get(sessionTokenHeader)
		if token == "" {
			token = s.tokenFromCookie(c)
		}

		id, created, err := s.app.EnsureSession(c.Request().Context(), token)
		if err != nil {
			return apperrors.InternalError("failed to resolve session", err)
		}

		c.Set(contextKeySessionID, id)
		c.Response().Header().Set(sessionTokenHeader, id.String())

		if created {
			if err := s.writeTokenCookie(c, id); err != nil {
				slog.Warn("Failed to write session cookie", "error", err)
			}
		}

		return next(c)
	}
}

func (s *Server) tokenFromCookie(c echo.Context) string {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		// Tampered or stale cookie; treat as absent.
		return ""
	}
	token, _ := session.Values[sessionKeyToken].(string)
	return token
}

func (s *Server) writeTokenCookie(c echo.Context, id uuid.UUID) error {
	session, err := s.sessionStore.New(c.Request(), sessionName)
	if err != nil {
		return fmt.Errorf("failed to create session cookie: %w", err)
	}
	session.Values[sessionKeyToken] = id.String()
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

func (s *Server) dropTokenCookie(c echo.Context) {
	session, err := s.sessionStore.New(c.Request(), sessionName)
	if err != nil {
		return
	}
	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response()); err != nil {
		slog.Warn("Failed to drop session cookie", "error", err)
	}
}

// sessionID returns the session resolved by sessionMiddleware.
func sessionID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(contextKeySessionID).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("no session in request context", nil)
	}
	return id, nil
}
