package hub

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
)

// envelope is the outbound wire frame.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func encodeEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(envelope{Event: event, Data: payload})
}

// Conn wraps a websocket connection with a dedicated write goroutine.
// All outbound traffic for the connection goes through its send buffer, so
// a slow reader never blocks the hub or the simulator.
type Conn struct {
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewConn starts the write goroutine for connection.
func NewConn(connection *websocket.Conn, clock clockwork.Clock) *Conn {
	c := &Conn{
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
	}
	c.configurePongHandler()
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Conn) run() {
	ticker := c.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.wg.Done()

	for {
		select {
		case msg, ok := <-c.sendChannel:
			if !ok {
				return
			}
			c.updateWriteDeadline()
			if err := c.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.Chan():
			c.updateWriteDeadline()
			if err := c.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.doneChannel:
			return
		}
	}
}

// SendEvent encodes and enqueues one event for this connection only.
// Returns an error if the connection is closed or its buffer is full.
func (c *Conn) SendEvent(event string, payload any) error {
	data, err := encodeEvent(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	if !c.trySend(data) {
		return fmt.Errorf("connection closed or send buffer full")
	}
	return nil
}

// trySend enqueues pre-encoded data without blocking. Returns false when the
// buffer is full or the connection is closed.
func (c *Conn) trySend(data []byte) bool {
	select {
	case <-c.doneChannel:
		return false
	default:
	}
	select {
	case c.sendChannel <- data:
		return true
	default:
		return false
	}
}

// ReadMessage blocks until the next inbound text message or an error.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.connection.ReadMessage()
	return data, err
}

func (c *Conn) stop() {
	c.stopOnce.Do(func() {
		close(c.doneChannel)
		_ = c.connection.Close()
	})
	c.wg.Wait()
}

// stopGraceful sends a close frame with reason before closing.
func (c *Conn) stopGraceful(reason string) {
	c.stopOnce.Do(func() {
		close(c.doneChannel)

		// Wait for the write goroutine to exit before writing the close
		// frame; the websocket connection does not allow concurrent writers.
		c.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		c.updateWriteDeadline()
		_ = c.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = c.connection.Close()
	})
}

func (c *Conn) configurePongHandler() {
	c.updateReadDeadline()
	c.connection.SetPongHandler(func(string) error {
		c.updateReadDeadline()
		return nil
	})
}

func (c *Conn) updateWriteDeadline() {
	_ = c.connection.SetWriteDeadline(c.clock.Now().Add(writeDeadline))
}

func (c *Conn) updateReadDeadline() {
	_ = c.connection.SetReadDeadline(c.clock.Now().Add(pongDeadline))
}
