package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SunsetOrange/carnivorous-garden/internal/domain"
)

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, ts *httptest.Server, cookies []*http.Cookie) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{}
	for _, cookie := range cookies {
		pair := http.Cookie{Name: cookie.Name, Value: cookie.Value}
		header.Add("Cookie", pair.String())
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func readWSEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env wsEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func sendWSEvent(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(wsEnvelope{Event: event, Data: data}))
}

func waitForSession(t *testing.T, check func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestHandleWebSocket_RejectsUnauthenticated(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ts := httptest.NewServer(srv.echo)
	defer ts.Close()

	conn, resp, err := dialWS(t, ts, nil)

	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWebSocket_AttachesAndDetachesSession(t *testing.T) {
	srv, registry, _ := newTestServer(t)
	ts := httptest.NewServer(srv.echo)
	defer ts.Close()

	identity := uuid.New()
	conn, _, err := dialWS(t, ts, sessionCookies(t, srv, identity, true))
	require.NoError(t, err)

	waitForSession(t, func() bool {
		sess, ok := registry.Get(identity)
		return ok && sess.FaultMode
	})

	conn.Close()
	waitForSession(t, func() bool {
		_, ok := registry.Get(identity)
		return !ok
	})
}

func TestHandleWebSocket_AddPlantRoundTrip(t *testing.T) {
	srv, _, store := newTestServer(t)
	ts := httptest.NewServer(srv.echo)
	defer ts.Close()

	identity := uuid.New()
	conn, _, err := dialWS(t, ts, sessionCookies(t, srv, identity, false))
	require.NoError(t, err)
	defer conn.Close()

	sendWSEvent(t, conn, domain.EventAddPlant, domain.AddPlantCommand{
		PlantName: "Venus Fly Trap",
		PlantType: "Carnivorous",
	})

	env := readWSEnvelope(t, conn)
	assert.Equal(t, domain.EventNewPlant, env.Event)

	var event domain.NewPlantEvent
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, "Venus Fly Trap", event.PlantName)
	assert.Equal(t, "Carnivorous", event.PlantType)
	assert.NotEqual(t, uuid.Nil, event.PlantID)

	plants, err := store.ListByOwner(context.Background(), identity)
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, "Venus Fly Trap", plants[0].Name)
}

func TestHandleWebSocket_AddPlantValidationError(t *testing.T) {
	srv, _, store := newTestServer(t)
	ts := httptest.NewServer(srv.echo)
	defer ts.Close()

	identity := uuid.New()
	conn, _, err := dialWS(t, ts, sessionCookies(t, srv, identity, false))
	require.NoError(t, err)
	defer conn.Close()

	sendWSEvent(t, conn, domain.EventAddPlant, domain.AddPlantCommand{})

	env := readWSEnvelope(t, conn)
	assert.Equal(t, domain.EventError, env.Event)

	plants, err := store.ListByOwner(context.Background(), identity)
	require.NoError(t, err)
	assert.Empty(t, plants)
}

func TestHandleWebSocket_ToggleFaultMode(t *testing.T) {
	srv, registry, _ := newTestServer(t)
	ts := httptest.NewServer(srv.echo)
	defer ts.Close()

	identity := uuid.New()
	conn, _, err := dialWS(t, ts, sessionCookies(t, srv, identity, false))
	require.NoError(t, err)
	defer conn.Close()

	waitForSession(t, func() bool {
		_, ok := registry.Get(identity)
		return ok
	})

	sendWSEvent(t, conn, domain.EventToggleFaultMode, nil)

	env := readWSEnvelope(t, conn)
	assert.Equal(t, domain.EventToggleFaultMode, env.Event)
	assert.JSONEq(t, `{"enabled":true}`, string(env.Data))

	sess, ok := registry.Get(identity)
	require.True(t, ok)
	assert.True(t, sess.FaultMode)
}

func TestHandleWebSocket_FaultModeProducesErrors(t *testing.T) {
	srv, registry, _ := newTestServer(t)
	ts := httptest.NewServer(srv.echo)
	defer ts.Close()

	identity := uuid.New()
	conn, _, err := dialWS(t, ts, sessionCookies(t, srv, identity, true))
	require.NoError(t, err)
	defer conn.Close()

	waitForSession(t, func() bool {
		_, ok := registry.Get(identity)
		return ok
	})

	// The failure coin is fair, so 50 attempts miss with probability 2^-50.
	sawError := false
	for i := 0; i < 50 && !sawError; i++ {
		sendWSEvent(t, conn, domain.EventAddPlant, domain.AddPlantCommand{
			PlantName: "Pitcher Plant",
			PlantType: "Carnivorous",
		})
		env := readWSEnvelope(t, conn)
		if env.Event == domain.EventError {
			sawError = true
		}
	}
	assert.True(t, sawError)
}
