// Package audithook bridges Streampay lifecycle events to an audit
// trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/transfer"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnStreamCreated      = (*Extension)(nil)
	_ plugin.OnStreamStarted      = (*Extension)(nil)
	_ plugin.OnStreamPaused       = (*Extension)(nil)
	_ plugin.OnStreamStopped      = (*Extension)(nil)
	_ plugin.OnDeposit            = (*Extension)(nil)
	_ plugin.OnWithdraw           = (*Extension)(nil)
	_ plugin.OnRefund             = (*Extension)(nil)
	_ plugin.OnAutoDepositToggled = (*Extension)(nil)
	_ plugin.OnTransferResolved   = (*Extension)(nil)
	_ plugin.OnTransferFailed     = (*Extension)(nil)
	_ plugin.OnUntrustedSender    = (*Extension)(nil)
	_ plugin.OnCronPass           = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Streampay lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated implements plugin.OnStreamCreated.
func (e *Extension) OnStreamCreated(ctx context.Context, s interface{}) error {
	return e.record(ctx, ActionStreamCreated, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID(s), CategoryLifecycle, nil,
		"event", "stream_created",
	)
}

// OnStreamStarted implements plugin.OnStreamStarted.
func (e *Extension) OnStreamStarted(ctx context.Context, s interface{}) error {
	return e.record(ctx, ActionStreamStarted, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID(s), CategoryLifecycle, nil,
		"event", "stream_started",
	)
}

// OnStreamPaused implements plugin.OnStreamPaused.
func (e *Extension) OnStreamPaused(ctx context.Context, s interface{}) error {
	return e.record(ctx, ActionStreamPaused, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID(s), CategoryLifecycle, nil,
		"event", "stream_paused",
	)
}

// OnStreamStopped implements plugin.OnStreamStopped.
func (e *Extension) OnStreamStopped(ctx context.Context, s interface{}) error {
	status := ""
	if st, ok := s.(*stream.Stream); ok {
		status = string(st.Status)
	}
	return e.record(ctx, ActionStreamStopped, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID(s), CategoryLifecycle, nil,
		"event", "stream_stopped",
		"final_status", status,
	)
}

// ──────────────────────────────────────────────────
// Balance movement hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (e *Extension) OnDeposit(ctx context.Context, streamID string, amount uint64) error {
	return e.record(ctx, ActionDeposit, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID, CategoryFunds, nil,
		"amount", amount,
	)
}

// OnWithdraw implements plugin.OnWithdraw.
func (e *Extension) OnWithdraw(ctx context.Context, streamID string, amount uint64) error {
	return e.record(ctx, ActionWithdraw, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID, CategoryFunds, nil,
		"amount", amount,
	)
}

// OnRefund implements plugin.OnRefund.
func (e *Extension) OnRefund(ctx context.Context, streamID string, amount uint64) error {
	return e.record(ctx, ActionRefund, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID, CategoryFunds, nil,
		"amount", amount,
	)
}

// OnAutoDepositToggled implements plugin.OnAutoDepositToggled.
func (e *Extension) OnAutoDepositToggled(ctx context.Context, streamID string, enabled bool) error {
	return e.record(ctx, ActionAutoDepositToggled, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamID, CategoryFunds, nil,
		"enabled", enabled,
	)
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnTransferResolved implements plugin.OnTransferResolved.
func (e *Extension) OnTransferResolved(ctx context.Context, p interface{}) error {
	return e.record(ctx, ActionTransferResolved, SeverityInfo, OutcomeSuccess,
		ResourceTransfer, transferID(p), CategoryPayout, nil,
		"event", "transfer_resolved",
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, p interface{}) error {
	return e.record(ctx, ActionTransferFailed, SeverityWarning, OutcomeFailure,
		ResourceTransfer, transferID(p), CategoryPayout, nil,
		"event", "transfer_failed",
	)
}

// ──────────────────────────────────────────────────
// Inbound and cron hooks
// ──────────────────────────────────────────────────

// OnUntrustedSender implements plugin.OnUntrustedSender.
func (e *Extension) OnUntrustedSender(ctx context.Context, sender string) error {
	return e.record(ctx, ActionSenderRejected, SeverityWarning, OutcomeFailure,
		ResourceSender, sender, CategoryAccess, nil,
		"sender", sender,
	)
}

// OnCronPass implements plugin.OnCronPass.
func (e *Extension) OnCronPass(ctx context.Context, toppedUp int, elapsed time.Duration) error {
	return e.record(ctx, ActionCronPass, SeverityInfo, OutcomeSuccess,
		ResourceCron, "", CategorySchedule, nil,
		"topped_up", toppedUp,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func streamID(s interface{}) string {
	if st, ok := s.(*stream.Stream); ok {
		return st.ID.String()
	}
	return ""
}

func transferID(p interface{}) string {
	if t, ok := p.(*transfer.Pending); ok {
		return t.ID.String()
	}
	return ""
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
