package database

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SunsetOrange/carnivorous-garden/internal/domain"
)

// InMemoryPlantStore provides in-process plant storage. Used by tests and
// as a stand-in when no database is available.
type InMemoryPlantStore struct {
	mu     sync.RWMutex
	plants map[uuid.UUID][]domain.Plant
}

// NewInMemoryPlantStore creates an empty store.
func NewInMemoryPlantStore() *InMemoryPlantStore {
	return &InMemoryPlantStore{plants: make(map[uuid.UUID][]domain.Plant)}
}

// ListByOwner returns a copy of the owner's plants in insertion order.
func (s *InMemoryPlantStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Plant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Plant, len(s.plants[ownerID]))
	copy(out, s.plants[ownerID])
	return out, nil
}

// Create appends a new plant for ownerID.
func (s *InMemoryPlantStore) Create(_ context.Context, ownerID uuid.UUID, name, plantType string) (*domain.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plant := domain.Plant{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		PlantType: plantType,
		Health:    "Healthy",
		CreatedAt: time.Now().UTC(),
	}
	s.plants[ownerID] = append(s.plants[ownerID], plant)
	return &plant, nil
}
