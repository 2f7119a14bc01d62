// Package server implements the HTTP server using Echo framework.
//
// Routes: session lifecycle (cookie identity), WebSocket (room join + command
// dispatch), health probes, Prometheus metrics.
// Handlers split by domain: handlers_session.go, handlers_ws.go, handlers_health.go.
package server
