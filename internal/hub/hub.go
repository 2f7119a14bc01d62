package hub

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/SunsetOrange/carnivorous-garden/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

type roomConns map[*Conn]struct{}

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type joinCmd struct {
	baseHubCmd
	identity     uuid.UUID
	connection   *Conn
	errorChannel chan error
}

type leaveCmd struct {
	baseHubCmd
	identity   uuid.UUID
	connection *Conn
}

type broadcastCmd struct {
	baseHubCmd
	identity uuid.UUID
	data     []byte
	event    string
}

type roomSizeCmd struct {
	baseHubCmd
	identity     uuid.UUID
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub routes outbound events to the connections of exactly one identity's
// room. Single goroutine + command channel (no mutexes); per-connection
// write goroutines isolate slow clients.
type Hub struct {
	cmdCh             chan hubCmd
	clock             clockwork.Clock
	rooms             map[uuid.UUID]roomConns
	onRoomEmpty       func(identity uuid.UUID)
	done              chan struct{}
	maxClientsPerRoom int
}

// NewHub creates a hub and starts its actor goroutine.
// onRoomEmpty is called when the last connection leaves an identity's room;
// the session layer uses it to detach the identity.
// maxClientsPerRoom limits connections per identity (resource exhaustion guard).
func NewHub(onRoomEmpty func(uuid.UUID), clock clockwork.Clock, maxClientsPerRoom int) *Hub {
	h := &Hub{
		cmdCh:             make(chan hubCmd, 256),
		clock:             clock,
		rooms:             make(map[uuid.UUID]roomConns),
		onRoomEmpty:       onRoomEmpty,
		done:              make(chan struct{}),
		maxClientsPerRoom: maxClientsPerRoom,
	}
	go h.run()
	return h
}

// Join adds a connection to the identity's room.
// Returns an error only if the room is full.
func (h *Hub) Join(identity uuid.UUID, conn *Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- joinCmd{identity: identity, connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("join command timed out after %v", commandTimeout)
	}
}

// Leave removes a connection from the identity's room. No-op if the
// connection was never joined.
func (h *Hub) Leave(identity uuid.UUID, conn *Conn) {
	h.cmdCh <- leaveCmd{identity: identity, connection: conn}
}

// Broadcast delivers one event to every connection currently in the
// identity's room. An empty or unknown room is a no-op, never an error;
// this absorbs the race where an identity disconnects between a simulator
// snapshot and delivery.
func (h *Hub) Broadcast(identity uuid.UUID, event string, payload any) {
	data, err := encodeEvent(event, payload)
	if err != nil {
		slog.Error("Failed to encode broadcast event", "event", event, "error", err)
		return
	}
	h.cmdCh <- broadcastCmd{identity: identity, data: data, event: event}
}

// RoomSize returns the number of connections in the identity's room.
// Returns -1 if the command times out.
func (h *Hub) RoomSize(identity uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- roomSizeCmd{identity: identity, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case size := <-replyCh:
		return size
	case <-timer.Chan():
		slog.Warn("RoomSize timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, closing all connections.
// Blocks until the actor goroutine has exited or a timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case joinCmd:
			h.handleJoin(c)
		case leaveCmd:
			h.handleLeave(c.identity, c.connection)
		case broadcastCmd:
			h.handleBroadcast(c)
		case roomSizeCmd:
			c.replyChannel <- len(h.rooms[c.identity])
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleJoin(c joinCmd) {
	conns, exists := h.rooms[c.identity]
	if !exists {
		conns = make(roomConns)
		h.rooms[c.identity] = conns
	}

	if len(conns) >= h.maxClientsPerRoom {
		slog.Warn("Rejecting client: room full", "user_id", c.identity.String(), "max_clients", h.maxClientsPerRoom)
		if len(conns) == 0 {
			delete(h.rooms, c.identity)
		}
		c.connection.stop()
		c.errorChannel <- fmt.Errorf("max clients per room (%d) reached", h.maxClientsPerRoom)
		return
	}

	conns[c.connection] = struct{}{}

	metrics.HubActiveRooms.Set(float64(len(h.rooms)))
	metrics.HubConnectedClients.Inc()

	slog.Debug("Client joined room", "user_id", c.identity.String(), "room_size", len(conns))
	c.errorChannel <- nil
}

func (h *Hub) handleLeave(identity uuid.UUID, conn *Conn) {
	conns, exists := h.rooms[identity]
	if !exists {
		return
	}
	if _, exists := conns[conn]; !exists {
		return
	}

	conn.stop()
	delete(conns, conn)
	metrics.HubConnectedClients.Dec()

	if len(conns) == 0 {
		delete(h.rooms, identity)
		metrics.HubActiveRooms.Set(float64(len(h.rooms)))
		if h.onRoomEmpty != nil {
			h.onRoomEmpty(identity)
		}
		slog.Info("Last client left room", "user_id", identity.String())
	} else {
		slog.Debug("Client left room", "user_id", identity.String(), "room_size", len(conns))
	}
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	conns, exists := h.rooms[c.identity]
	if !exists {
		return
	}

	var slow []*Conn
	for conn := range conns {
		if !conn.trySend(c.data) {
			slow = append(slow, conn)
		}
	}
	metrics.HubEventsDelivered.WithLabelValues(c.event).Add(float64(len(conns) - len(slow)))

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "user_id", c.identity.String())
		metrics.HubSlowClientsEvicted.Inc()
		h.handleLeave(c.identity, conn)
	}
}

func (h *Hub) handleStop() {
	totalClients := 0
	for _, conns := range h.rooms {
		totalClients += len(conns)
	}

	slog.Info("Hub shutting down", "rooms", len(h.rooms), "total_clients", totalClients)

	for identity, conns := range h.rooms {
		for conn := range conns {
			conn.stopGraceful("Server shutting down")
		}
		delete(h.rooms, identity)
		if h.onRoomEmpty != nil {
			h.onRoomEmpty(identity)
		}
	}
	metrics.HubActiveRooms.Set(0)
}
