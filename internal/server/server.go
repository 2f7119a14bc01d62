package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/SunsetOrange/carnivorous-garden/internal/app"
	"github.com/SunsetOrange/carnivorous-garden/internal/config"
	"github.com/SunsetOrange/carnivorous-garden/internal/hub"
	"github.com/SunsetOrange/carnivorous-garden/internal/session"
)

// postgresHealthChecker is a minimal interface for PostgreSQL health checks
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

// redisHealthChecker is a minimal interface for Redis health checks
type redisHealthChecker interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	app       *app.Service
	registry  *session.Registry
	hub       *hub.Hub
	resolver  *CookieResolver
	db        postgresHealthChecker
	redis     redisHealthChecker
	clock     clockwork.Clock
	startTime time.Time
}

// NewServer wires the HTTP and websocket surface. db and redis are only
// used by the readiness probe; tests may pass fakes.
func NewServer(cfg *config.Config, appSvc *app.Service, registry *session.Registry, h *hub.Hub, db postgresHealthChecker, redis redisHealthChecker, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       appSvc,
		registry:  registry,
		hub:       h,
		resolver:  NewCookieResolver(cfg.SessionSecret, cfg.AppEnv == "production"),
		db:        db,
		redis:     redis,
		clock:     clock,
		startTime: clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
