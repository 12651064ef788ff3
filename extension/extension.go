// Package extension provides the Forge extension adapter for Streampay.
//
// It implements the forge.Extension interface to integrate Streampay
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.streampay" or
// "streampay" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/store"
	"github.com/xraph/streampay/store/memory"
	"github.com/xraph/streampay/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "streampay"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Token payment streaming engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Streampay as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *streampay.Engine
	store      store.Store
	engineOpts []streampay.Option
	useGrove   bool
}

// New creates a new Streampay Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Streampay engine.
// This is nil until Register is called.
func (e *Extension) Engine() *streampay.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the streaming engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		if e.useGrove {
			e.Logger().Warn("streampay: grove database configured but no store provided; falling back to memory",
				forge.F("grove_database", e.config.GroveDatabase),
			)
		}
		e.store = memory.New()
	}

	// Build engine options from resolved config.
	opts := e.buildEngineOpts()

	eng := streampay.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*streampay.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("streampay: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("streampay: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs streampay.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []streampay.Option {
	opts := make([]streampay.Option, 0, len(e.engineOpts)+3)

	// Apply config-derived options.
	if e.config.MinCreateDeposit > 0 {
		opts = append(opts, streampay.WithMinCreateDeposit(types.Balance(e.config.MinCreateDeposit)))
	}
	if e.config.Tick > 0 {
		opts = append(opts, streampay.WithTick(e.config.Tick))
	}
	if e.config.CronInterval > 0 {
		opts = append(opts, streampay.WithCron(e.config.CronInterval))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("streampay: configuration is required but not found in config files; " +
				"ensure 'extensions.streampay' or 'streampay' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("streampay: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("min_create_deposit", e.config.MinCreateDeposit),
		forge.F("tick", e.config.Tick),
		forge.F("cron_interval", e.config.CronInterval),
		forge.F("grove_database", e.config.GroveDatabase),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.streampay" first (namespaced pattern).
	if cm.IsSet("extensions.streampay") {
		if err := cm.Bind("extensions.streampay", &cfg); err == nil {
			e.Logger().Debug("streampay: loaded config from file",
				forge.F("key", "extensions.streampay"),
			)
			return cfg, true
		}
		e.Logger().Warn("streampay: failed to bind extensions.streampay config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "streampay" key.
	if cm.IsSet("streampay") {
		if err := cm.Bind("streampay", &cfg); err == nil {
			e.Logger().Debug("streampay: loaded config from file",
				forge.F("key", "streampay"),
			)
			return cfg, true
		}
		e.Logger().Warn("streampay: failed to bind streampay config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.MinCreateDeposit == 0 {
		cfg.MinCreateDeposit = defaults.MinCreateDeposit
	}
	if cfg.Tick == 0 {
		cfg.Tick = defaults.Tick
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.GroveDatabase == "" && programmaticConfig.GroveDatabase != "" {
		yamlConfig.GroveDatabase = programmaticConfig.GroveDatabase
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.MinCreateDeposit == 0 && programmaticConfig.MinCreateDeposit != 0 {
		yamlConfig.MinCreateDeposit = programmaticConfig.MinCreateDeposit
	}
	if yamlConfig.Tick == 0 && programmaticConfig.Tick != 0 {
		yamlConfig.Tick = programmaticConfig.Tick
	}
	if yamlConfig.CronInterval == 0 && programmaticConfig.CronInterval != 0 {
		yamlConfig.CronInterval = programmaticConfig.CronInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
