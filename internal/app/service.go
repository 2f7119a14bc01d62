package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/SunsetOrange/carnivorous-garden/internal/domain"
	"github.com/SunsetOrange/carnivorous-garden/internal/errors"
	"github.com/SunsetOrange/carnivorous-garden/internal/metrics"
	"github.com/SunsetOrange/carnivorous-garden/internal/session"
)

// Service handles inbound commands from authenticated connections.
type Service struct {
	plants   domain.PlantStore
	registry *session.Registry
	rooms    domain.RoomBroadcaster
	policy   domain.FaultPolicy
}

// NewService creates the command service.
func NewService(plants domain.PlantStore, registry *session.Registry, rooms domain.RoomBroadcaster, policy domain.FaultPolicy) *Service {
	return &Service{
		plants:   plants,
		registry: registry,
		rooms:    rooms,
		policy:   policy,
	}
}

// AddPlant handles one add_plant command for identity. On success exactly
// one plant is created and exactly one new_plant event is broadcast to the
// identity's room. On any failure nothing is broadcast; the error goes to
// sender only.
func (s *Service) AddPlant(ctx context.Context, identity uuid.UUID, cmd domain.AddPlantCommand, sender domain.EventSender) {
	sess, ok := s.registry.Get(identity)
	if !ok {
		slog.Error("Unauthorized attempt to add plant", "user_id", identity.String())
		s.sendError(sender, errors.UnauthorizedError("no active session"))
		return
	}

	if cmd.PlantName == "" || cmd.PlantType == "" {
		s.sendError(sender, errors.ValidationError("plant_name and plant_type are required"))
		return
	}

	if s.policy.ShouldFail(sess.FaultMode) {
		slog.Warn("Simulated failure while adding plant", "user_id", identity.String(), "plant_name", cmd.PlantName)
		s.sendError(sender, errors.SimulatedFailureError("failed to add plant due to server error"))
		return
	}

	plant, err := s.plants.Create(ctx, identity, cmd.PlantName, cmd.PlantType)
	if err != nil {
		slog.Error("Failed to create plant", "user_id", identity.String(), "plant_name", cmd.PlantName, "error", err)
		s.sendError(sender, errors.StoreError("failed to add plant", err))
		return
	}

	s.rooms.Broadcast(identity, domain.EventNewPlant, domain.NewPlantEvent{
		PlantID:   plant.ID,
		PlantName: plant.Name,
		PlantType: plant.PlantType,
	})
	metrics.PlantsCreatedTotal.Inc()
	slog.Info("New plant added", "user_id", identity.String(), "plant_id", plant.ID.String(), "plant_name", plant.Name)
}

// ToggleFaultMode flips the fault-injection flag for identity.
// Returns the new flag value; ok is false when no session exists, which is
// benign (the toggle is user-triggered) and only logged.
func (s *Service) ToggleFaultMode(identity uuid.UUID) (enabled, ok bool) {
	sess, found := s.registry.Get(identity)
	if !found {
		slog.Warn("Fault mode toggle for absent session", "user_id", identity.String())
		return false, false
	}

	enabled = !sess.FaultMode
	if err := s.registry.SetFaultMode(identity, enabled); err != nil {
		// Session vanished between Get and Set; same benign outcome.
		slog.Warn("Fault mode toggle raced with detach", "user_id", identity.String())
		return false, false
	}

	slog.Info("Fault mode toggled", "user_id", identity.String(), "enabled", enabled)
	return enabled, true
}

// SetFaultMode sets the fault-injection flag for identity to an explicit
// value. An absent session is benign and only logged.
func (s *Service) SetFaultMode(identity uuid.UUID, enabled bool) {
	if err := s.registry.SetFaultMode(identity, enabled); err != nil {
		slog.Warn("Fault mode update for absent session", "user_id", identity.String())
		return
	}
	slog.Info("Fault mode set", "user_id", identity.String(), "enabled", enabled)
}

func (s *Service) sendError(sender domain.EventSender, serr *errors.Error) {
	metrics.CommandErrorsTotal.WithLabelValues(string(serr.Type)).Inc()
	if err := sender.SendEvent(domain.EventError, serr.ToResponse()); err != nil {
		slog.Warn("Failed to deliver error event", "error", err)
	}
}
