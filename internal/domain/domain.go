package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// Plant is a monitored greenhouse plant owned by exactly one identity.
type Plant struct {
	ID        uuid.UUID `db:"id"`
	OwnerID   uuid.UUID `db:"owner_id"`
	Name      string    `db:"name"`
	PlantType string    `db:"plant_type"`
	Health    string    `db:"health"`
	CreatedAt time.Time `db:"created_at"`
}

// Reading is a synthetic sensor snapshot. Generated fresh per tick,
// broadcast immediately, never persisted.
type Reading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WaterLevel  int     `json:"water_level"`
	InsectCount int     `json:"number_of_insects"`
}

// Session is the ephemeral per-identity connection record tracked by the
// registry. FaultMode gates simulated failures for this identity.
type Session struct {
	Identity  uuid.UUID
	FaultMode bool
}

// --- Event payloads ---

// NewPlantEvent announces a successfully created plant to the owner's room.
type NewPlantEvent struct {
	PlantID   uuid.UUID `json:"plant_id"`
	PlantName string    `json:"plant_name"`
	PlantType string    `json:"plant_type"`
}

// UpdatePlantEvent carries one simulated reading for one plant.
type UpdatePlantEvent struct {
	PlantID uuid.UUID `json:"plant_id"`
	Data    Reading   `json:"data"`
}

// AddPlantCommand is the inbound add_plant request body.
type AddPlantCommand struct {
	PlantName string `json:"plant_name"`
	PlantType string `json:"plant_type"`
}

// Wire event names.
const (
	EventError       = "error"
	EventNewPlant    = "new_plant"
	EventUpdatePlant = "update_plant"

	EventAddPlant        = "add_plant"
	EventToggleFaultMode = "toggle_fault_mode"
)

// --- Interfaces ---

// PlantStore abstracts plant persistence.
type PlantStore interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Plant, error)
	Create(ctx context.Context, ownerID uuid.UUID, name, plantType string) (*Plant, error)
}

// IdentityResolver maps an inbound connection to an authenticated identity
// and its initial fault-mode flag. ok is false when the connection is
// unauthenticated.
type IdentityResolver interface {
	Resolve(r *http.Request) (identity uuid.UUID, faultMode bool, ok bool)
}

// FaultPolicy decides whether the current operation should simulate failure.
type FaultPolicy interface {
	ShouldFail(enabled bool) bool
}

// SessionSnapshotter yields a point-in-time copy of all live sessions,
// safe to iterate without holding any lock.
type SessionSnapshotter interface {
	Snapshot() []Session
}

// RoomBroadcaster delivers an event to every connection in one identity's
// room. Broadcasting to an empty or unknown room is a no-op.
type RoomBroadcaster interface {
	Broadcast(identity uuid.UUID, event string, payload any)
}

// EventSender writes one event to a single connection.
type EventSender interface {
	SendEvent(event string, payload any) error
}
