package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.Storage.Type)
	assert.Equal(t, "./pomotodo-data/pomotodo.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.Storage.SQLiteBusyTimeout)
	assert.Equal(t, "pomotodo/", cfg.Storage.GCSPrefix)

	// DB pool defaults
	assert.Equal(t, 4, cfg.Storage.Pool.MaxConns)
	assert.Equal(t, 1, cfg.Storage.Pool.MinConns)
	assert.Equal(t, 5*time.Minute, cfg.Storage.Pool.ConnMaxLifetime)
	assert.Equal(t, time.Minute, cfg.Storage.Pool.ConnMaxIdleTime)

	assert.Equal(t, NotifierLog, cfg.Notifier.Type)
	assert.Equal(t, "pomotodo", cfg.Notifier.AppName)
	assert.Equal(t, time.Second, cfg.Scheduler.TickInterval)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.OperationTimeout)
	assert.False(t, cfg.Observability.OTelEnabled)
	assert.Empty(t, cfg.PresetsFile)
	assert.Nil(t, cfg.Timezone)

	assert.Equal(t, "8081", cfg.HTTP.Port)
	assert.Zero(t, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadServerConfig_WithEnv(t *testing.T) {
	t.Setenv("POMO_STORAGE_TYPE", "postgres")
	t.Setenv("POMO_POSTGRES_DSN", "postgres://pomo:secret@db:5432/pomo")
	t.Setenv("POMO_DB_MAX_CONNS", "8")
	t.Setenv("POMO_NOTIFIER", "desktop")
	t.Setenv("POMO_TICK_INTERVAL", "5s")
	t.Setenv("POMO_OTEL_ENABLED", "true")
	t.Setenv("POMO_PRESETS_FILE", "/etc/pomotodo/presets.toml")
	t.Setenv("POMO_TIMEZONE", "Europe/Berlin")
	t.Setenv("POMO_HTTP_PORT", "9090")
	t.Setenv("POMO_HTTP_READ_TIMEOUT", "3s")
	t.Setenv("POMO_HTTP_MAX_BODY_BYTES", "4096")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Type)
	assert.Equal(t, "postgres://pomo:secret@db:5432/pomo", cfg.Storage.PostgresDSN)
	assert.Equal(t, 8, cfg.Storage.Pool.MaxConns)
	assert.Equal(t, NotifierDesktop, cfg.Notifier.Type)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.TickInterval)
	assert.True(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, "/etc/pomotodo/presets.toml", cfg.PresetsFile)
	require.NotNil(t, cfg.Timezone)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone.String())
	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, int64(4096), cfg.HTTP.MaxBodyBytes)
}

func TestLoadServerConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown storage type",
			env:     map[string]string{"POMO_STORAGE_TYPE": "mysql"},
			wantErr: `unknown POMO_STORAGE_TYPE: "mysql"`,
		},
		{
			name:    "postgres without dsn",
			env:     map[string]string{"POMO_STORAGE_TYPE": "postgres"},
			wantErr: "POMO_POSTGRES_DSN is required",
		},
		{
			name:    "gcs without bucket",
			env:     map[string]string{"POMO_STORAGE_TYPE": "gcs"},
			wantErr: "POMO_GCS_BUCKET is required",
		},
		{
			name:    "fs with empty dir",
			env:     map[string]string{"POMO_STORAGE_TYPE": "fs", "POMO_FS_DIR": ""},
			wantErr: "POMO_FS_DIR is required",
		},
		{
			name:    "sqlite with empty path",
			env:     map[string]string{"POMO_SQLITE_PATH": ""},
			wantErr: "POMO_SQLITE_PATH is required",
		},
		{
			name:    "unknown notifier",
			env:     map[string]string{"POMO_NOTIFIER": "pager"},
			wantErr: `unknown POMO_NOTIFIER: "pager"`,
		},
		{
			name:    "tick interval too short",
			env:     map[string]string{"POMO_TICK_INTERVAL": "500ms"},
			wantErr: "POMO_TICK_INTERVAL must be between 1s and 30s",
		},
		{
			name:    "tick interval too long",
			env:     map[string]string{"POMO_TICK_INTERVAL": "1m"},
			wantErr: "POMO_TICK_INTERVAL must be between 1s and 30s",
		},
		{
			name:    "tick interval not a duration",
			env:     map[string]string{"POMO_TICK_INTERVAL": "often"},
			wantErr: "POMO_TICK_INTERVAL",
		},
		{
			name:    "unknown timezone",
			env:     map[string]string{"POMO_TIMEZONE": "Mars/Olympus"},
			wantErr: "POMO_TIMEZONE",
		},
		{
			name:    "non positive tick timeout",
			env:     map[string]string{"POMO_TICK_TIMEOUT": "0s"},
			wantErr: "POMO_TICK_TIMEOUT must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadServerConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadServerConfig_MemoryNeedsNothing(t *testing.T) {
	t.Setenv("POMO_STORAGE_TYPE", "memory")
	t.Setenv("POMO_SQLITE_PATH", "")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage.Type)
}

func TestLoadCLIConfig(t *testing.T) {
	t.Setenv("POMO_STORAGE_TYPE", "fs")
	t.Setenv("POMO_FS_DIR", "/tmp/pomotodo")

	cfg, err := LoadCLIConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageFS, cfg.Storage.Type)
	assert.Equal(t, "/tmp/pomotodo", cfg.Storage.FSDir)
	assert.Equal(t, NotifierLog, cfg.Notifier.Type)
}

func TestLoadTestConfig(t *testing.T) {
	t.Setenv("TEST_POSTGRES_DSN", "postgres://localhost/test")

	cfg, err := LoadTestConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/test", cfg.PostgresDSN)
}
