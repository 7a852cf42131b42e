package config

import (
	"fmt"
	"time"

	"github.com/rezkam/pomotodo/internal/env"
)

// ServerConfig holds all configuration for the server binary.
type ServerConfig struct {
	AppConfig
	HTTP            HTTPConfig
	ShutdownTimeout time.Duration `env:"POMO_SHUTDOWN_TIMEOUT" default:"10s"`
}

// HTTPConfig holds HTTP server configuration.
// Zero values are replaced with the server's defaults.
type HTTPConfig struct {
	Host              string        `env:"POMO_HTTP_HOST"`
	Port              string        `env:"POMO_HTTP_PORT" default:"8081"`
	ReadTimeout       time.Duration `env:"POMO_HTTP_READ_TIMEOUT"`
	WriteTimeout      time.Duration `env:"POMO_HTTP_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `env:"POMO_HTTP_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `env:"POMO_HTTP_READ_HEADER_TIMEOUT"`
	MaxHeaderBytes    int           `env:"POMO_HTTP_MAX_HEADER_BYTES"`
	MaxBodyBytes      int64         `env:"POMO_HTTP_MAX_BODY_BYTES"`
}

// LoadServerConfig loads and validates server configuration from environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return cfg, nil
}

// CLIConfig holds configuration for the command line client.
type CLIConfig struct {
	AppConfig
}

// LoadCLIConfig loads and validates CLI configuration from environment.
func LoadCLIConfig() (*CLIConfig, error) {
	cfg := &CLIConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load cli config: %w", err)
	}

	return cfg, nil
}
