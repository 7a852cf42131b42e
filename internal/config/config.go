package config

import (
	"fmt"
	"time"
)

// Notification sinks selectable with POMO_NOTIFIER.
const (
	NotifierLog     = "log"
	NotifierDesktop = "desktop"
)

// Bounds for POMO_TICK_INTERVAL.
const (
	MinTickInterval = time.Second
	MaxTickInterval = 30 * time.Second
)

// AppConfig is the configuration shared by every binary that runs the
// services against a store.
type AppConfig struct {
	Storage       StorageConfig
	Notifier      NotifierConfig
	Scheduler     SchedulerConfig
	Observability ObservabilityConfig

	// PresetsFile optionally points at a TOML catalogue of extra read-only presets.
	PresetsFile string `env:"POMO_PRESETS_FILE"`

	// Timezone is where reminders without their own timezone are evaluated.
	// Unset means the host's local zone.
	Timezone *time.Location `env:"POMO_TIMEZONE"`
}

// NotifierConfig selects where due notifications are shown.
type NotifierConfig struct {
	Type    string        `env:"POMO_NOTIFIER" default:"log"`
	AppName string        `env:"POMO_NOTIFIER_APP_NAME" default:"pomotodo"`
	Expire  time.Duration `env:"POMO_NOTIFIER_EXPIRE" default:"10s"`
}

// Validate checks the notifier type.
func (c *NotifierConfig) Validate() error {
	switch c.Type {
	case NotifierLog, NotifierDesktop:
		return nil
	default:
		return fmt.Errorf("unknown POMO_NOTIFIER: %q", c.Type)
	}
}

// SchedulerConfig controls the polling loop.
type SchedulerConfig struct {
	TickInterval     time.Duration `env:"POMO_TICK_INTERVAL" default:"1s"`
	OperationTimeout time.Duration `env:"POMO_TICK_TIMEOUT" default:"10s"`
}

// Validate checks that the interval is within the supported range.
func (c *SchedulerConfig) Validate() error {
	if c.TickInterval < MinTickInterval || c.TickInterval > MaxTickInterval {
		return fmt.Errorf("POMO_TICK_INTERVAL must be between %s and %s, got %s",
			MinTickInterval, MaxTickInterval, c.TickInterval)
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("POMO_TICK_TIMEOUT must be positive, got %s", c.OperationTimeout)
	}
	return nil
}
