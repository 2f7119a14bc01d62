// Package app provides the application service layer.
//
// Orchestrates use cases triggered by inbound websocket events: plant
// creation and fault-mode toggling. Sits between the websocket handlers and
// the domain collaborators. Depends on domain interfaces, not concrete
// implementations.
package app
