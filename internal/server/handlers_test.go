package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/SunsetOrange/carnivorous-garden/internal/app"
	"github.com/SunsetOrange/carnivorous-garden/internal/config"
	"github.com/SunsetOrange/carnivorous-garden/internal/database"
	"github.com/SunsetOrange/carnivorous-garden/internal/faults"
	"github.com/SunsetOrange/carnivorous-garden/internal/hub"
	"github.com/SunsetOrange/carnivorous-garden/internal/session"
)

// mockRedisClient provides a minimal mock for health check testing
type mockRedisClient struct {
	pingErr error
}

func (m *mockRedisClient) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	if m.pingErr != nil {
		cmd.SetErr(m.pingErr)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

// mockPgxPool provides a minimal mock for PostgreSQL health checks
type mockPgxPool struct {
	pingErr error
}

func (m *mockPgxPool) Ping(ctx context.Context) error {
	return m.pingErr
}

type serverOption func(*testServerDeps)

type testServerDeps struct {
	db    postgresHealthChecker
	redis redisHealthChecker
}

func withPostgresHealthCheck(db postgresHealthChecker) serverOption {
	return func(d *testServerDeps) { d.db = db }
}

func withRedisHealthCheck(redis redisHealthChecker) serverOption {
	return func(d *testServerDeps) { d.redis = redis }
}

func newTestServer(t *testing.T, opts ...serverOption) (*Server, *session.Registry, *database.InMemoryPlantStore) {
	t.Helper()

	deps := &testServerDeps{
		db:    &mockPgxPool{},
		redis: &mockRedisClient{},
	}
	for _, opt := range opts {
		opt(deps)
	}

	cfg := &config.Config{
		AppEnv:            "test",
		Port:              "0",
		SessionSecret:     "test-secret-key-32-bytes-long!!!",
		MaxClientsPerRoom: 50,
	}

	registry := session.NewRegistry()
	store := database.NewInMemoryPlantStore()
	clock := clockwork.NewRealClock()

	h := hub.NewHub(registry.Detach, clock, cfg.MaxClientsPerRoom)
	t.Cleanup(h.Stop)

	appSvc := app.NewService(store, registry, h, faults.New(1))
	srv := NewServer(cfg, appSvc, registry, h, deps.db, deps.redis, clock)

	return srv, registry, store
}

// sessionCookies produces valid signed session cookies for identity, the way
// a browser that called POST /session would carry them.
func sessionCookies(t *testing.T, srv *Server, identity uuid.UUID, faultMode bool) []*http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, srv.resolver.SetIdentity(req, rec, identity, faultMode))

	return rec.Result().Cookies()
}
