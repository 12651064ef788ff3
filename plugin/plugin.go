// Package plugin provides an extensible plugin system for Streampay.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated is called when a new stream is created.
type OnStreamCreated interface {
	Plugin
	OnStreamCreated(ctx context.Context, s interface{}) error
}

// OnStreamStarted is called when a stream begins (or resumes) accruing.
type OnStreamStarted interface {
	Plugin
	OnStreamStarted(ctx context.Context, s interface{}) error
}

// OnStreamPaused is called when a stream is paused.
type OnStreamPaused interface {
	Plugin
	OnStreamPaused(ctx context.Context, s interface{}) error
}

// OnStreamStopped is called when a stream reaches a terminal status.
type OnStreamStopped interface {
	Plugin
	OnStreamStopped(ctx context.Context, s interface{}) error
}

// ──────────────────────────────────────────────────
// Balance movement hooks
// ──────────────────────────────────────────────────

// OnDeposit is called when funds are committed to a stream.
type OnDeposit interface {
	Plugin
	OnDeposit(ctx context.Context, streamID string, amount uint64) error
}

// OnWithdraw is called when accrued funds are paid out to the receiver.
type OnWithdraw interface {
	Plugin
	OnWithdraw(ctx context.Context, streamID string, amount uint64) error
}

// OnRefund is called when undisbursed funds are returned to the owner.
type OnRefund interface {
	Plugin
	OnRefund(ctx context.Context, streamID string, amount uint64) error
}

// OnAutoDepositToggled is called when a stream's auto-deposit flag changes.
type OnAutoDepositToggled interface {
	Plugin
	OnAutoDepositToggled(ctx context.Context, streamID string, enabled bool) error
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnTransferResolved is called when a pending payout reaches its final
// successful state.
type OnTransferResolved interface {
	Plugin
	OnTransferResolved(ctx context.Context, p interface{}) error
}

// OnTransferFailed is called when a pending payout fails and its amount
// is credited back onto the stream.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, p interface{}) error
}

// ──────────────────────────────────────────────────
// Inbound notification hooks
// ──────────────────────────────────────────────────

// OnUntrustedSender is called when a deposit notification is rejected
// because its sender is not a configured token account.
type OnUntrustedSender interface {
	Plugin
	OnUntrustedSender(ctx context.Context, sender string) error
}

// ──────────────────────────────────────────────────
// Cron hooks
// ──────────────────────────────────────────────────

// OnCronPass is called after each scheduled auto-deposit pass.
type OnCronPass interface {
	Plugin
	OnCronPass(ctx context.Context, toppedUp int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Payout executors
// ──────────────────────────────────────────────────

// PayoutExecutorPlugin provides a payout executor implementation: the
// host-side component that issues the external calls a transfer
// operation describes.
type PayoutExecutorPlugin interface {
	Plugin
	Executor() interface{} // Returns the host's executor
}
