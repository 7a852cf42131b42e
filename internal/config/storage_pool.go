package config

import "time"

// StoragePoolConfig holds postgres connection pool configuration.
// Zero values fall back to the store's own defaults.
type StoragePoolConfig struct {
	MaxConns        int           `env:"POMO_DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"POMO_DB_MIN_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `env:"POMO_DB_CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `env:"POMO_DB_CONN_MAX_IDLE_TIME" default:"1m"`
}
