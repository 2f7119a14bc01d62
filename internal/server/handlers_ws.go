package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/SunsetOrange/carnivorous-garden/internal/domain"
	"github.com/SunsetOrange/carnivorous-garden/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboard is served from varying hosts
	},
}

// inboundEnvelope is the wire frame clients send.
type inboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (s *Server) handleWebSocket(c echo.Context) error {
	identity, faultMode, ok := s.resolver.Resolve(c.Request())
	if !ok {
		return c.String(401, "No active session")
	}

	wsConn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	conn := hub.NewConn(wsConn, s.clock)
	if err := s.hub.Join(identity, conn); err != nil {
		slog.Warn("Rejecting connection", "user_id", identity.String(), "error", err)
		return nil
	}
	s.registry.Attach(identity, faultMode)

	slog.Info("Client connected", "user_id", identity.String())

	// Read pump - blocks until the connection closes
	s.readPump(c.Request().Context(), identity, conn)

	s.hub.Leave(identity, conn)
	slog.Info("Client disconnected", "user_id", identity.String())

	return nil
}

func (s *Server) readPump(ctx context.Context, identity uuid.UUID, conn *hub.Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env inboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			slog.Debug("Ignoring malformed message", "user_id", identity.String())
			continue
		}

		switch env.Event {
		case domain.EventAddPlant:
			var cmd domain.AddPlantCommand
			if err := json.Unmarshal(env.Data, &cmd); err != nil {
				slog.Debug("Ignoring malformed add_plant payload", "user_id", identity.String())
				continue
			}
			s.app.AddPlant(ctx, identity, cmd, conn)
		case domain.EventToggleFaultMode:
			enabled, ok := s.app.ToggleFaultMode(identity)
			if ok {
				_ = conn.SendEvent(domain.EventToggleFaultMode, map[string]bool{"enabled": enabled})
			}
		default:
			slog.Debug("Ignoring unknown event", "event", env.Event, "user_id", identity.String())
		}
	}
}
