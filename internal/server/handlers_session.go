package server

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/SunsetOrange/carnivorous-garden/internal/errors"
)

type createSessionResponse struct {
	UserID    string `json:"user_id"`
	FaultMode bool   `json:"fault_mode"`
}

type faultModeRequest struct {
	Enabled bool `json:"enabled"`
}

// handleCreateSession hands out a visitor identity cookie. An existing
// valid cookie is kept so reconnecting visitors land in the same room.
func (s *Server) handleCreateSession(c echo.Context) error {
	if identity, faultMode, ok := s.resolver.Resolve(c.Request()); ok {
		return c.JSON(200, createSessionResponse{UserID: identity.String(), FaultMode: faultMode})
	}

	identity := uuid.New()
	if err := s.resolver.SetIdentity(c.Request(), c.Response().Writer, identity, false); err != nil {
		slog.Error("Failed to save session cookie", "error", err)
		return c.JSON(500, errors.InternalError("failed to create session", err).ToResponse())
	}

	slog.Info("Session created", "user_id", identity.String())
	return c.JSON(201, createSessionResponse{UserID: identity.String()})
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	identity, _, ok := s.resolver.Resolve(c.Request())
	if ok {
		slog.Info("Session cleared", "user_id", identity.String())
	}

	if err := s.resolver.Clear(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to clear session cookie", "error", err)
		return c.JSON(500, errors.InternalError("failed to clear session", err).ToResponse())
	}

	return c.NoContent(204)
}

// handleSetFaultMode flips the fault-injection flag in the cookie and, when
// the visitor is currently connected, in the live session registry.
func (s *Server) handleSetFaultMode(c echo.Context) error {
	identity, _, ok := s.resolver.Resolve(c.Request())
	if !ok {
		return c.JSON(401, errors.UnauthorizedError("no active session").ToResponse())
	}

	var req faultModeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, errors.ValidationError("invalid request body").ToResponse())
	}

	if err := s.resolver.SetFaultMode(c.Request(), c.Response().Writer, req.Enabled); err != nil {
		slog.Error("Failed to save session cookie", "user_id", identity.String(), "error", err)
		return c.JSON(500, errors.InternalError("failed to update session", err).ToResponse())
	}
	s.app.SetFaultMode(identity, req.Enabled)

	return c.JSON(200, map[string]bool{"fault_mode": req.Enabled})
}
