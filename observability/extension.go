// Package observability provides a metrics extension for Streampay that
// records lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/streampay/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnStreamCreated      = (*MetricsExtension)(nil)
	_ plugin.OnStreamStarted      = (*MetricsExtension)(nil)
	_ plugin.OnStreamPaused       = (*MetricsExtension)(nil)
	_ plugin.OnStreamStopped      = (*MetricsExtension)(nil)
	_ plugin.OnDeposit            = (*MetricsExtension)(nil)
	_ plugin.OnWithdraw           = (*MetricsExtension)(nil)
	_ plugin.OnRefund             = (*MetricsExtension)(nil)
	_ plugin.OnAutoDepositToggled = (*MetricsExtension)(nil)
	_ plugin.OnTransferResolved   = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed     = (*MetricsExtension)(nil)
	_ plugin.OnUntrustedSender    = (*MetricsExtension)(nil)
	_ plugin.OnCronPass           = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Streampay plugin to automatically track streaming metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Stream lifecycle metrics
	StreamCreated Counter
	StreamStarted Counter
	StreamPaused  Counter
	StreamStopped Counter

	// Balance metrics
	Deposits          Counter
	DepositVolume     Histogram
	Withdrawals       Counter
	WithdrawalVolume  Histogram
	Refunds           Counter
	RefundVolume      Histogram
	AutoDepositToggle Counter

	// Transfer metrics
	TransfersResolved Counter
	TransfersFailed   Counter

	// Inbound metrics
	SendersRejected Counter

	// Cron metrics
	CronPasses  Counter
	CronTopUps  Counter
	CronLatency Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Stream lifecycle metrics
		StreamCreated: factory.Counter("streampay.stream.created"),
		StreamStarted: factory.Counter("streampay.stream.started"),
		StreamPaused:  factory.Counter("streampay.stream.paused"),
		StreamStopped: factory.Counter("streampay.stream.stopped"),

		// Balance metrics
		Deposits:          factory.Counter("streampay.deposits"),
		DepositVolume:     factory.Histogram("streampay.deposit.amount"),
		Withdrawals:       factory.Counter("streampay.withdrawals"),
		WithdrawalVolume:  factory.Histogram("streampay.withdraw.amount"),
		Refunds:           factory.Counter("streampay.refunds"),
		RefundVolume:      factory.Histogram("streampay.refund.amount"),
		AutoDepositToggle: factory.Counter("streampay.auto_deposit.toggles"),

		// Transfer metrics
		TransfersResolved: factory.Counter("streampay.transfer.resolved"),
		TransfersFailed:   factory.Counter("streampay.transfer.failed"),

		// Inbound metrics
		SendersRejected: factory.Counter("streampay.sender.rejected"),

		// Cron metrics
		CronPasses:  factory.Counter("streampay.cron.passes"),
		CronTopUps:  factory.Counter("streampay.cron.topups"),
		CronLatency: factory.Histogram("streampay.cron.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated implements plugin.OnStreamCreated.
func (m *MetricsExtension) OnStreamCreated(_ context.Context, _ interface{}) error {
	m.StreamCreated.Inc()
	return nil
}

// OnStreamStarted implements plugin.OnStreamStarted.
func (m *MetricsExtension) OnStreamStarted(_ context.Context, _ interface{}) error {
	m.StreamStarted.Inc()
	return nil
}

// OnStreamPaused implements plugin.OnStreamPaused.
func (m *MetricsExtension) OnStreamPaused(_ context.Context, _ interface{}) error {
	m.StreamPaused.Inc()
	return nil
}

// OnStreamStopped implements plugin.OnStreamStopped.
func (m *MetricsExtension) OnStreamStopped(_ context.Context, _ interface{}) error {
	m.StreamStopped.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Balance movement hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (m *MetricsExtension) OnDeposit(_ context.Context, _ string, amount uint64) error {
	m.Deposits.Inc()
	m.DepositVolume.Observe(float64(amount))
	return nil
}

// OnWithdraw implements plugin.OnWithdraw.
func (m *MetricsExtension) OnWithdraw(_ context.Context, _ string, amount uint64) error {
	m.Withdrawals.Inc()
	m.WithdrawalVolume.Observe(float64(amount))
	return nil
}

// OnRefund implements plugin.OnRefund.
func (m *MetricsExtension) OnRefund(_ context.Context, _ string, amount uint64) error {
	m.Refunds.Inc()
	m.RefundVolume.Observe(float64(amount))
	return nil
}

// OnAutoDepositToggled implements plugin.OnAutoDepositToggled.
func (m *MetricsExtension) OnAutoDepositToggled(_ context.Context, _ string, _ bool) error {
	m.AutoDepositToggle.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnTransferResolved implements plugin.OnTransferResolved.
func (m *MetricsExtension) OnTransferResolved(_ context.Context, _ interface{}) error {
	m.TransfersResolved.Inc()
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ interface{}) error {
	m.TransfersFailed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Inbound and cron hooks
// ──────────────────────────────────────────────────

// OnUntrustedSender implements plugin.OnUntrustedSender.
func (m *MetricsExtension) OnUntrustedSender(_ context.Context, _ string) error {
	m.SendersRejected.Inc()
	return nil
}

// OnCronPass implements plugin.OnCronPass.
func (m *MetricsExtension) OnCronPass(_ context.Context, toppedUp int, elapsed time.Duration) error {
	m.CronPasses.Inc()
	m.CronTopUps.Add(float64(toppedUp))
	m.CronLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
