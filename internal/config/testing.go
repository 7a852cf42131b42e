package config

import (
	"fmt"

	"github.com/rezkam/pomotodo/internal/env"
)

// TestConfig holds configuration for tests that need real external backends.
// Empty values mean the corresponding tests are skipped.
type TestConfig struct {
	PostgresDSN string `env:"TEST_POSTGRES_DSN"`
	GCSBucket   string `env:"TEST_GCS_BUCKET"`
}

// LoadTestConfig loads test configuration from environment.
func LoadTestConfig() (*TestConfig, error) {
	cfg := &TestConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load test config: %w", err)
	}

	return cfg, nil
}
