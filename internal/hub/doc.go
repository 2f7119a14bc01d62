// Package hub implements the per-identity room multiplexer using the actor pattern.
//
// A single goroutine owns the room maps; all mutation and delivery goes
// through a command channel. Per-connection write goroutines handle slow
// clients gracefully. The hub is the sole path between the telemetry core
// and the websocket transport.
package hub
