package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all process configuration, loaded from environment variables.
type Config struct {
	AppEnv        string `env:"APP_ENV" envDefault:"development"`
	Port          string `env:"PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisURL      string `env:"REDIS_URL"`
	SessionSecret string `env:"SESSION_SECRET"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`

	// Telemetry simulation settings.
	TickInterval      time.Duration `env:"TICK_INTERVAL" envDefault:"2s"`
	RandomSeed        uint64        `env:"RANDOM_SEED"`
	PlantCacheTTL     time.Duration `env:"PLANT_CACHE_TTL" envDefault:"10s"`
	MaxClientsPerRoom int           `env:"MAX_CLIENTS_PER_ROOM" envDefault:"50"`

	TemperatureMin float64 `env:"TEMPERATURE_MIN" envDefault:"20.0"`
	TemperatureMax float64 `env:"TEMPERATURE_MAX" envDefault:"30.0"`
	HumidityMin    float64 `env:"HUMIDITY_MIN" envDefault:"40.0"`
	HumidityMax    float64 `env:"HUMIDITY_MAX" envDefault:"60.0"`
	WaterLevelMin  int     `env:"WATER_LEVEL_MIN" envDefault:"1"`
	WaterLevelMax  int     `env:"WATER_LEVEL_MAX" envDefault:"10"`
	InsectCountMin int     `env:"INSECT_COUNT_MIN" envDefault:"0"`
	InsectCountMax int     `env:"INSECT_COUNT_MAX" envDefault:"10"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive")
	}
	if cfg.MaxClientsPerRoom <= 0 {
		return nil, fmt.Errorf("MAX_CLIENTS_PER_ROOM must be positive")
	}
	if cfg.TemperatureMin > cfg.TemperatureMax {
		return nil, fmt.Errorf("TEMPERATURE_MIN must not exceed TEMPERATURE_MAX")
	}
	if cfg.HumidityMin > cfg.HumidityMax {
		return nil, fmt.Errorf("HUMIDITY_MIN must not exceed HUMIDITY_MAX")
	}
	if cfg.WaterLevelMin > cfg.WaterLevelMax {
		return nil, fmt.Errorf("WATER_LEVEL_MIN must not exceed WATER_LEVEL_MAX")
	}
	if cfg.InsectCountMin > cfg.InsectCountMax {
		return nil, fmt.Errorf("INSECT_COUNT_MIN must not exceed INSECT_COUNT_MAX")
	}

	return cfg, nil
}
