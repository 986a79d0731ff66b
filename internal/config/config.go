package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries all runtime settings, loaded from the environment.
type Config struct {
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/sendlog.db"`

	// Gateway (Evolution-API-compatible) connection.
	GatewayURL      string        `env:"GATEWAY_URL" envDefault:"http://localhost:8081"`
	GatewayAPIKey   string        `env:"GATEWAY_API_KEY"`
	GatewayInstance string        `env:"GATEWAY_INSTANCE" envDefault:"main"`
	CheckTimeout    time.Duration `env:"GATEWAY_CHECK_TIMEOUT" envDefault:"5s"`
	SendTimeout     time.Duration `env:"GATEWAY_SEND_TIMEOUT" envDefault:"15s"`

	// Send pacing and quota.
	DailyLimit     int           `env:"DAILY_LIMIT" envDefault:"50"`
	SendDelay      time.Duration `env:"SEND_DELAY" envDefault:"10s"`
	PauseAfterSkip bool          `env:"PAUSE_AFTER_SKIP" envDefault:"false"`

	// Number normalization.
	CountryCode string `env:"COUNTRY_CODE" envDefault:"55"`
	AreaCode    string `env:"AREA_CODE" envDefault:"21"`

	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://localhost:8080"`
}

// FromEnv parses configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
