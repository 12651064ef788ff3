package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onStreamCreated      []OnStreamCreated
	onStreamStarted      []OnStreamStarted
	onStreamPaused       []OnStreamPaused
	onStreamStopped      []OnStreamStopped
	onDeposit            []OnDeposit
	onWithdraw           []OnWithdraw
	onRefund             []OnRefund
	onAutoDepositToggled []OnAutoDepositToggled
	onTransferResolved   []OnTransferResolved
	onTransferFailed     []OnTransferFailed
	onUntrustedSender    []OnUntrustedSender
	onCronPass           []OnCronPass
	payoutExecutors      []PayoutExecutorPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnStreamCreated); ok {
		r.onStreamCreated = append(r.onStreamCreated, v)
	}
	if v, ok := p.(OnStreamStarted); ok {
		r.onStreamStarted = append(r.onStreamStarted, v)
	}
	if v, ok := p.(OnStreamPaused); ok {
		r.onStreamPaused = append(r.onStreamPaused, v)
	}
	if v, ok := p.(OnStreamStopped); ok {
		r.onStreamStopped = append(r.onStreamStopped, v)
	}
	if v, ok := p.(OnDeposit); ok {
		r.onDeposit = append(r.onDeposit, v)
	}
	if v, ok := p.(OnWithdraw); ok {
		r.onWithdraw = append(r.onWithdraw, v)
	}
	if v, ok := p.(OnRefund); ok {
		r.onRefund = append(r.onRefund, v)
	}
	if v, ok := p.(OnAutoDepositToggled); ok {
		r.onAutoDepositToggled = append(r.onAutoDepositToggled, v)
	}
	if v, ok := p.(OnTransferResolved); ok {
		r.onTransferResolved = append(r.onTransferResolved, v)
	}
	if v, ok := p.(OnTransferFailed); ok {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}
	if v, ok := p.(OnUntrustedSender); ok {
		r.onUntrustedSender = append(r.onUntrustedSender, v)
	}
	if v, ok := p.(OnCronPass); ok {
		r.onCronPass = append(r.onCronPass, v)
	}
	if v, ok := p.(PayoutExecutorPlugin); ok {
		r.payoutExecutors = append(r.payoutExecutors, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnStreamCreated)(nil)).Elem(), "OnStreamCreated")
	checkInterface(reflect.TypeOf((*OnStreamStopped)(nil)).Elem(), "OnStreamStopped")
	checkInterface(reflect.TypeOf((*OnDeposit)(nil)).Elem(), "OnDeposit")
	checkInterface(reflect.TypeOf((*OnWithdraw)(nil)).Elem(), "OnWithdraw")
	checkInterface(reflect.TypeOf((*OnTransferResolved)(nil)).Elem(), "OnTransferResolved")
	checkInterface(reflect.TypeOf((*OnCronPass)(nil)).Elem(), "OnCronPass")
	checkInterface(reflect.TypeOf((*PayoutExecutorPlugin)(nil)).Elem(), "PayoutExecutor")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStreamCreated emits a stream created event.
func (r *Registry) EmitStreamCreated(ctx context.Context, s interface{}) {
	r.mu.RLock()
	plugins := r.onStreamCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStreamCreated(ctx, s)
		}); err != nil {
			r.logger.Warn("plugin OnStreamCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStreamStarted emits a stream started event.
func (r *Registry) EmitStreamStarted(ctx context.Context, s interface{}) {
	r.mu.RLock()
	plugins := r.onStreamStarted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStreamStarted(ctx, s)
		}); err != nil {
			r.logger.Warn("plugin OnStreamStarted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStreamPaused emits a stream paused event.
func (r *Registry) EmitStreamPaused(ctx context.Context, s interface{}) {
	r.mu.RLock()
	plugins := r.onStreamPaused
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStreamPaused(ctx, s)
		}); err != nil {
			r.logger.Warn("plugin OnStreamPaused failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStreamStopped emits a stream stopped event.
func (r *Registry) EmitStreamStopped(ctx context.Context, s interface{}) {
	r.mu.RLock()
	plugins := r.onStreamStopped
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStreamStopped(ctx, s)
		}); err != nil {
			r.logger.Warn("plugin OnStreamStopped failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDeposit emits a deposit event.
func (r *Registry) EmitDeposit(ctx context.Context, streamID string, amount uint64) {
	r.mu.RLock()
	plugins := r.onDeposit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDeposit(ctx, streamID, amount)
		}); err != nil {
			r.logger.Warn("plugin OnDeposit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdraw emits a withdraw event.
func (r *Registry) EmitWithdraw(ctx context.Context, streamID string, amount uint64) {
	r.mu.RLock()
	plugins := r.onWithdraw
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdraw(ctx, streamID, amount)
		}); err != nil {
			r.logger.Warn("plugin OnWithdraw failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRefund emits a refund event.
func (r *Registry) EmitRefund(ctx context.Context, streamID string, amount uint64) {
	r.mu.RLock()
	plugins := r.onRefund
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRefund(ctx, streamID, amount)
		}); err != nil {
			r.logger.Warn("plugin OnRefund failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAutoDepositToggled emits an auto-deposit toggle event.
func (r *Registry) EmitAutoDepositToggled(ctx context.Context, streamID string, enabled bool) {
	r.mu.RLock()
	plugins := r.onAutoDepositToggled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAutoDepositToggled(ctx, streamID, enabled)
		}); err != nil {
			r.logger.Warn("plugin OnAutoDepositToggled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransferResolved emits a transfer resolved event.
func (r *Registry) EmitTransferResolved(ctx context.Context, pending interface{}) {
	r.mu.RLock()
	plugins := r.onTransferResolved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferResolved(ctx, pending)
		}); err != nil {
			r.logger.Warn("plugin OnTransferResolved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransferFailed emits a transfer failed event.
func (r *Registry) EmitTransferFailed(ctx context.Context, pending interface{}) {
	r.mu.RLock()
	plugins := r.onTransferFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferFailed(ctx, pending)
		}); err != nil {
			r.logger.Warn("plugin OnTransferFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUntrustedSender emits a rejected-sender event.
func (r *Registry) EmitUntrustedSender(ctx context.Context, sender string) {
	r.mu.RLock()
	plugins := r.onUntrustedSender
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUntrustedSender(ctx, sender)
		}); err != nil {
			r.logger.Warn("plugin OnUntrustedSender failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCronPass emits a cron pass event.
func (r *Registry) EmitCronPass(ctx context.Context, toppedUp int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onCronPass
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCronPass(ctx, toppedUp, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnCronPass failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// GetPayoutExecutors returns all registered payout executor plugins.
func (r *Registry) GetPayoutExecutors() []PayoutExecutorPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]PayoutExecutorPlugin, len(r.payoutExecutors))
	copy(result, r.payoutExecutors)
	return result
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the streaming pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
