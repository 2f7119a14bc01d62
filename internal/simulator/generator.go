// Package simulator runs the background telemetry generator.
//
// A single scheduler loop, independent of any connection, wakes on a fixed
// interval, snapshots the session registry and broadcasts synthetic sensor
// readings for every connected identity's plants to that identity's room.
package simulator

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/SunsetOrange/carnivorous-garden/internal/domain"
	"github.com/SunsetOrange/carnivorous-garden/internal/metrics"
)

// storeTimeout bounds the per-identity plant fetch so a hung store cannot
// stall the remaining identities in the same tick.
const storeTimeout = 2 * time.Second

// Ranges holds the uniform distribution bounds for simulated readings.
type Ranges struct {
	TemperatureMin float64
	TemperatureMax float64
	HumidityMin    float64
	HumidityMax    float64
	WaterLevelMin  int
	WaterLevelMax  int
	InsectCountMin int
	InsectCountMax int
}

// DefaultRanges matches the greenhouse conditions carnivorous plants like.
func DefaultRanges() Ranges {
	return Ranges{
		TemperatureMin: 20.0, TemperatureMax: 30.0,
		HumidityMin: 40.0, HumidityMax: 60.0,
		WaterLevelMin: 1, WaterLevelMax: 10,
		InsectCountMin: 0, InsectCountMax: 10,
	}
}

// Generator synthesizes plant telemetry on a tick loop.
type Generator struct {
	sessions domain.SessionSnapshotter
	plants   domain.PlantStore
	rooms    domain.RoomBroadcaster
	policy   domain.FaultPolicy
	clock    clockwork.Clock
	interval time.Duration
	ranges   Ranges
	rng      *rand.Rand
}

// New creates a generator. Seed zero picks a random seed.
func New(sessions domain.SessionSnapshotter, plants domain.PlantStore, rooms domain.RoomBroadcaster, policy domain.FaultPolicy, clock clockwork.Clock, interval time.Duration, ranges Ranges, seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		sessions: sessions,
		plants:   plants,
		rooms:    rooms,
		policy:   policy,
		clock:    clock,
		interval: interval,
		ranges:   ranges,
		rng:      rand.New(rand.NewPCG(seed, seed)),
	}
}

// Run executes the tick loop until ctx is cancelled. The cancellation
// signal is checked at tick boundaries only; a tick in progress completes.
func (g *Generator) Run(ctx context.Context) {
	ticker := g.clock.NewTicker(g.interval)
	defer ticker.Stop()

	slog.Info("Telemetry simulator started", "interval", g.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Telemetry simulator stopped")
			return
		case <-ticker.Chan():
			g.tick(ctx)
		}
	}
}

func (g *Generator) tick(ctx context.Context) {
	tickStart := g.clock.Now()
	defer func() {
		metrics.SimulatorTicksTotal.Inc()
		metrics.SimulatorTickDuration.Observe(g.clock.Since(tickStart).Seconds())
	}()

	for _, sess := range g.sessions.Snapshot() {
		g.simulateIdentity(ctx, sess)
	}
}

// simulateIdentity generates and broadcasts readings for one identity.
// Failures are contained here: they never abort the tick for other
// identities and never stop the loop.
func (g *Generator) simulateIdentity(ctx context.Context, sess domain.Session) {
	if g.policy.ShouldFail(sess.FaultMode) {
		slog.Warn("Failed to send data, will retry later", "user_id", sess.Identity.String())
		metrics.SimulatorSkippedIdentities.Inc()
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	plants, err := g.plants.ListByOwner(fetchCtx, sess.Identity)
	cancel()
	if err != nil {
		slog.Error("Failed to list plants for simulation", "user_id", sess.Identity.String(), "error", err)
		metrics.SimulatorStoreErrors.Inc()
		return
	}

	for _, plant := range plants {
		event := domain.UpdatePlantEvent{PlantID: plant.ID, Data: g.reading()}
		// The identity may have disconnected since the snapshot; the hub
		// treats a broadcast to an empty room as a no-op.
		g.rooms.Broadcast(sess.Identity, domain.EventUpdatePlant, event)
		metrics.SimulatorReadingsSent.Inc()
		slog.Debug("Simulated reading sent", "user_id", sess.Identity.String(), "plant_id", plant.ID.String())
	}
}

func (g *Generator) reading() domain.Reading {
	return domain.Reading{
		Temperature: round2(g.uniform(g.ranges.TemperatureMin, g.ranges.TemperatureMax)),
		Humidity:    round2(g.uniform(g.ranges.HumidityMin, g.ranges.HumidityMax)),
		WaterLevel:  g.uniformInt(g.ranges.WaterLevelMin, g.ranges.WaterLevelMax),
		InsectCount: g.uniformInt(g.ranges.InsectCountMin, g.ranges.InsectCountMax),
	}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// uniformInt samples the inclusive range [lo, hi].
func (g *Generator) uniformInt(lo, hi int) int {
	if lo == hi {
		return lo
	}
	return lo + g.rng.IntN(hi-lo+1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
