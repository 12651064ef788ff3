package extension

import (
	"time"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/store"
	"github.com/xraph/streampay/types"
)

// Option configures the Streampay Forge extension.
type Option func(*Extension)

// WithStore sets the store for the streaming engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a streampay.Option through to the underlying engine.
func WithEngineOption(opt streampay.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a streampay plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, streampay.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMinCreateDeposit sets the minimum attached deposit for stream creation.
func WithMinCreateDeposit(amount types.Balance) Option {
	return func(e *Extension) { e.config.MinCreateDeposit = uint64(amount) }
}

// WithTick sets the accrual granularity.
func WithTick(d time.Duration) Option {
	return func(e *Extension) { e.config.Tick = d }
}

// WithCronInterval enables the auto-deposit worker with the given interval.
func WithCronInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.CronInterval = d }
}

// WithGroveDatabase sets the name of the grove.DB the host resolves for
// Streampay. Construct the matching store backend (postgres/sqlite/mongo)
// and pass it via WithStore; the name is surfaced in config logging only.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}
