// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the overlay backend.
type Config struct {
	Env         string   `env:"ENV" envDefault:"dev"`
	HTTPPort    int      `env:"HTTP_PORT" envDefault:"3000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	BridgePrefix string `env:"BRIDGE_PREFIX" envDefault:"overlay:"`

	DBPath string `env:"DB_PATH" envDefault:"./var/quackchat.db"`

	PairingTTL       time.Duration `env:"PAIRING_CODE_TTL" envDefault:"300s"`
	PairingSweepSpec string        `env:"PAIRING_SWEEP_SPEC" envDefault:"@every 1m"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsProd reports whether the app runs in production mode; dev-only routes
// are mounted when this is false.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}
