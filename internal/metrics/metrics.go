// Package metrics defines Prometheus instrumentation for the telemetry core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// HubActiveRooms tracks the number of rooms with at least one connection
	HubActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_rooms",
			Help: "Number of rooms with at least one connected client",
		},
	)

	// HubConnectedClients tracks total connected WebSocket clients
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients_total",
			Help: "Total number of connected WebSocket clients across all rooms",
		},
	)

	// HubSlowClientsEvicted counts clients dropped for not draining their send buffer
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Total clients evicted because their send buffer was full",
		},
	)

	// HubEventsDelivered counts outbound events by event name
	HubEventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_delivered_total",
			Help: "Total events enqueued for delivery by event name",
		},
		[]string{"event"},
	)
)

// Simulator metrics
var (
	// SimulatorTicksTotal counts completed simulation ticks
	SimulatorTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulator_ticks_total",
			Help: "Total completed telemetry simulation ticks",
		},
	)

	// SimulatorTickDuration tracks tick duration in seconds
	SimulatorTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simulator_tick_duration_seconds",
			Help:    "Telemetry simulation tick duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// SimulatorSkippedIdentities counts identities skipped by fault injection
	SimulatorSkippedIdentities = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulator_skipped_identities_total",
			Help: "Total per-tick identity skips caused by fault injection",
		},
	)

	// SimulatorStoreErrors counts plant store failures inside ticks
	SimulatorStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulator_store_errors_total",
			Help: "Total plant store failures during simulation ticks",
		},
	)

	// SimulatorReadingsSent counts readings broadcast to rooms
	SimulatorReadingsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulator_readings_sent_total",
			Help: "Total simulated readings broadcast to rooms",
		},
	)
)

// Command metrics
var (
	// PlantsCreatedTotal counts successful plant creations
	PlantsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plants_created_total",
			Help: "Total plants created via the add_plant command",
		},
	)

	// CommandErrorsTotal counts command failures by error type
	CommandErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "command_errors_total",
			Help: "Total command failures by error type",
		},
		[]string{"type"},
	)

	// ActiveSessions tracks the number of sessions in the registry
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of identities with a live session",
		},
	)
)

// Plant cache metrics
var (
	// PlantCacheHits counts plant list reads served from Redis
	PlantCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plant_cache_hits_total",
			Help: "Total plant list reads served from the Redis cache",
		},
	)

	// PlantCacheMisses counts plant list reads that fell through to Postgres
	PlantCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plant_cache_misses_total",
			Help: "Total plant list reads that fell through to the database",
		},
	)
)
