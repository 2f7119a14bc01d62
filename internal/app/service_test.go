package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SunsetOrange/carnivorous-garden/internal/domain"
	"github.com/SunsetOrange/carnivorous-garden/internal/errors"
	"github.com/SunsetOrange/carnivorous-garden/internal/faults"
	"github.com/SunsetOrange/carnivorous-garden/internal/session"
)

type sentEvent struct {
	event   string
	payload any
}

// fakeSender records unicast events.
type fakeSender struct {
	events []sentEvent
}

func (f *fakeSender) SendEvent(event string, payload any) error {
	f.events = append(f.events, sentEvent{event: event, payload: payload})
	return nil
}

func (f *fakeSender) errorTypes() []errors.ErrorType {
	var out []errors.ErrorType
	for _, ev := range f.events {
		if ev.event == domain.EventError {
			resp := ev.payload.(errors.ErrorResponse)
			out = append(out, resp.Type)
		}
	}
	return out
}

type broadcastRecord struct {
	identity uuid.UUID
	event    string
	payload  any
}

type fakeBroadcaster struct {
	records []broadcastRecord
}

func (f *fakeBroadcaster) Broadcast(identity uuid.UUID, event string, payload any) {
	f.records = append(f.records, broadcastRecord{identity: identity, event: event, payload: payload})
}

type fakeStore struct {
	created []domain.Plant
	fail    error
}

func (f *fakeStore) ListByOwner(context.Context, uuid.UUID) ([]domain.Plant, error) {
	return nil, nil
}

func (f *fakeStore) Create(_ context.Context, ownerID uuid.UUID, name, plantType string) (*domain.Plant, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	plant := domain.Plant{ID: uuid.New(), OwnerID: ownerID, Name: name, PlantType: plantType}
	f.created = append(f.created, plant)
	return &plant, nil
}

type policyFunc func(enabled bool) bool

func (f policyFunc) ShouldFail(enabled bool) bool { return f(enabled) }

var neverFail = policyFunc(func(bool) bool { return false })

func newTestService(policy domain.FaultPolicy) (*Service, *fakeStore, *session.Registry, *fakeBroadcaster) {
	store := &fakeStore{}
	registry := session.NewRegistry()
	rooms := &fakeBroadcaster{}
	return NewService(store, registry, rooms, policy), store, registry, rooms
}

func TestAddPlant_Success(t *testing.T) {
	svc, store, registry, rooms := newTestService(neverFail)
	identity := uuid.New()
	registry.Attach(identity, false)
	sender := &fakeSender{}

	svc.AddPlant(context.Background(), identity, domain.AddPlantCommand{
		PlantName: "Venus Fly Trap",
		PlantType: "Carnivorous",
	}, sender)

	require.Len(t, store.created, 1)
	require.Len(t, rooms.records, 1)
	assert.Empty(t, sender.events, "no events should go to the sender on success")

	record := rooms.records[0]
	assert.Equal(t, identity, record.identity)
	assert.Equal(t, domain.EventNewPlant, record.event)

	event := record.payload.(domain.NewPlantEvent)
	assert.Equal(t, store.created[0].ID, event.PlantID)
	assert.NotEqual(t, uuid.Nil, event.PlantID)
	assert.Equal(t, "Venus Fly Trap", event.PlantName)
	assert.Equal(t, "Carnivorous", event.PlantType)
}

func TestAddPlant_Unauthorized(t *testing.T) {
	svc, store, _, rooms := newTestService(neverFail)
	sender := &fakeSender{}

	svc.AddPlant(context.Background(), uuid.New(), domain.AddPlantCommand{
		PlantName: "Sundew",
		PlantType: "Carnivorous",
	}, sender)

	assert.Empty(t, store.created)
	assert.Empty(t, rooms.records)
	assert.Equal(t, []errors.ErrorType{errors.TypeUnauthorized}, sender.errorTypes())
}

func TestAddPlant_Validation(t *testing.T) {
	svc, store, registry, rooms := newTestService(neverFail)
	identity := uuid.New()
	registry.Attach(identity, false)
	sender := &fakeSender{}

	svc.AddPlant(context.Background(), identity, domain.AddPlantCommand{}, sender)

	assert.Empty(t, store.created)
	assert.Empty(t, rooms.records)
	assert.Equal(t, []errors.ErrorType{errors.TypeValidation}, sender.errorTypes())
}

func TestAddPlant_SimulatedFailure(t *testing.T) {
	alwaysFail := policyFunc(func(enabled bool) bool { return enabled })
	svc, store, registry, rooms := newTestService(alwaysFail)
	identity := uuid.New()
	registry.Attach(identity, true)
	sender := &fakeSender{}

	svc.AddPlant(context.Background(), identity, domain.AddPlantCommand{
		PlantName: "Pitcher Plant",
		PlantType: "Carnivorous",
	}, sender)

	assert.Empty(t, store.created, "no store write on injected failure")
	assert.Empty(t, rooms.records)
	assert.Equal(t, []errors.ErrorType{errors.TypeSimulatedFailure}, sender.errorTypes())
}

func TestAddPlant_FaultModeIsRoughlyFair(t *testing.T) {
	svc, store, registry, rooms := newTestService(faults.New(1))
	identity := uuid.New()
	registry.Attach(identity, true)

	const trials = 100
	failures := 0
	for range trials {
		sender := &fakeSender{}
		svc.AddPlant(context.Background(), identity, domain.AddPlantCommand{
			PlantName: "Cobra Lily",
			PlantType: "Carnivorous",
		}, sender)
		if types := sender.errorTypes(); len(types) > 0 {
			require.Equal(t, []errors.ErrorType{errors.TypeSimulatedFailure}, types)
			failures++
		}
	}

	successes := trials - failures
	assert.Len(t, store.created, successes, "every success writes exactly once")
	assert.Len(t, rooms.records, successes, "every success broadcasts exactly once")
	assert.Greater(t, failures, 30, "roughly half the trials should fail")
	assert.Less(t, failures, 70, "roughly half the trials should fail")
}

func TestAddPlant_StoreError(t *testing.T) {
	svc, store, registry, rooms := newTestService(neverFail)
	store.fail = assert.AnError
	identity := uuid.New()
	registry.Attach(identity, false)
	sender := &fakeSender{}

	svc.AddPlant(context.Background(), identity, domain.AddPlantCommand{
		PlantName: "Butterwort",
		PlantType: "Carnivorous",
	}, sender)

	assert.Empty(t, rooms.records, "no broadcast without a created plant")
	assert.Equal(t, []errors.ErrorType{errors.TypeStore}, sender.errorTypes())
}

func TestToggleFaultMode(t *testing.T) {
	svc, _, registry, _ := newTestService(neverFail)
	identity := uuid.New()
	registry.Attach(identity, false)

	enabled, ok := svc.ToggleFaultMode(identity)
	require.True(t, ok)
	assert.True(t, enabled)

	enabled, ok = svc.ToggleFaultMode(identity)
	require.True(t, ok)
	assert.False(t, enabled)
}

func TestToggleFaultMode_AbsentSession(t *testing.T) {
	svc, _, _, _ := newTestService(neverFail)

	_, ok := svc.ToggleFaultMode(uuid.New())
	assert.False(t, ok)
}
