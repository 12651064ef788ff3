package extension

import "time"

// Config holds the Streampay extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.streampay" or "streampay" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// MinCreateDeposit is the minimum attached deposit, in minimal token
	// units, required to create a stream (default: 0.1 native tokens).
	MinCreateDeposit uint64 `json:"min_create_deposit" mapstructure:"min_create_deposit" yaml:"min_create_deposit"`

	// Tick is the accrual granularity. Streams earn whole ticks only
	// (default: 1s).
	Tick time.Duration `json:"tick" mapstructure:"tick" yaml:"tick"`

	// CronInterval is how frequently the auto-deposit worker tops up
	// eligible streams. Zero disables the worker (default: 0).
	CronInterval time.Duration `json:"cron_interval" mapstructure:"cron_interval" yaml:"cron_interval"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the host application is expected to construct the matching
	// store backend (postgres/sqlite/mongo) and pass it via WithStore.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinCreateDeposit: 100_000_000, // 0.1 native at 1e9 scale
		Tick:             time.Second,
	}
}
