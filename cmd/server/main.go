package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/SunsetOrange/carnivorous-garden/internal/app"
	"github.com/SunsetOrange/carnivorous-garden/internal/config"
	"github.com/SunsetOrange/carnivorous-garden/internal/database"
	"github.com/SunsetOrange/carnivorous-garden/internal/faults"
	"github.com/SunsetOrange/carnivorous-garden/internal/hub"
	"github.com/SunsetOrange/carnivorous-garden/internal/logging"
	"github.com/SunsetOrange/carnivorous-garden/internal/redis"
	"github.com/SunsetOrange/carnivorous-garden/internal/server"
	"github.com/SunsetOrange/carnivorous-garden/internal/session"
	"github.com/SunsetOrange/carnivorous-garden/internal/simulator"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func rangesFromConfig(cfg *config.Config) simulator.Ranges {
	return simulator.Ranges{
		TemperatureMin: cfg.TemperatureMin, TemperatureMax: cfg.TemperatureMax,
		HumidityMin: cfg.HumidityMin, HumidityMax: cfg.HumidityMax,
		WaterLevelMin: cfg.WaterLevelMin, WaterLevelMax: cfg.WaterLevelMax,
		InsectCountMin: cfg.InsectCountMin, InsectCountMax: cfg.InsectCountMax,
	}
}

func runGracefulShutdown(srv *server.Server, h *hub.Hub, cancelSimulator context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cancelSimulator()
		h.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	// Plant reads go through a Redis read-through cache so the telemetry
	// tick does not hit Postgres for every identity every two seconds.
	plantRepo := database.NewPlantRepo(pool)
	plantStore := redis.NewCachedPlantStore(redisClient, plantRepo, cfg.PlantCacheTTL)

	registry := session.NewRegistry()
	policy := faults.New(cfg.RandomSeed)

	h := hub.NewHub(registry.Detach, clock, cfg.MaxClientsPerRoom)

	appSvc := app.NewService(plantStore, registry, h, policy)

	simCtx, cancelSimulator := context.WithCancel(context.Background())
	gen := simulator.New(registry, plantStore, h, policy, clock, cfg.TickInterval, rangesFromConfig(cfg), cfg.RandomSeed)
	go gen.Run(simCtx)

	srv := server.NewServer(cfg, appSvc, registry, h, pool, redisClient, clock)

	done := runGracefulShutdown(srv, h, cancelSimulator)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
