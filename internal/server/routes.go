package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Session lifecycle
	s.echo.POST("/session", s.handleCreateSession)
	s.echo.DELETE("/session", s.handleDeleteSession)
	s.echo.POST("/session/fault-mode", s.handleSetFaultMode)

	// WebSocket endpoint (identity resolved from the session cookie)
	s.echo.GET("/ws", s.handleWebSocket)
}
