package streampay

import (
	"context"

	"github.com/xraph/streampay/action"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/token"
	"github.com/xraph/streampay/transfer"
	"github.com/xraph/streampay/types"
)

// ──────────────────────────────────────────────────
// Stream lifecycle
// ──────────────────────────────────────────────────

// Create opens a new stream funded by a native-value call. The attached
// deposit must cover the creation fee, plus the initial balance for
// native-token streams. Fungible-token streams are created with a zero
// balance here and funded through token-transfer notifications; their
// initial balance can only be committed via OnTokenTransfer.
//
// The actor becomes the stream's owner; a non-empty OwnerID in params
// must match.
func (e *Engine) Create(ctx context.Context, actor string, params stream.CreateParams, attached types.Balance) (*stream.Stream, error) {
	if len(params.Description) > stream.MaxDescription {
		return nil, ErrTextFieldTooLong
	}
	if actor == "" {
		return nil, ValidationError{Field: "actor", Message: "must not be empty"}
	}
	if params.ReceiverID == "" {
		return nil, ValidationError{Field: "receiver_id", Message: "must not be empty"}
	}
	if params.OwnerID != "" && params.OwnerID != actor {
		return nil, ErrAccessDenied
	}

	tokenID, ok := e.registry.ResolveID(params.TokenName)
	if !ok {
		return nil, ErrInvalidToken
	}

	if e.registry.IsNative(tokenID) {
		required := e.minCreateDeposit.Add(params.Balance)
		if !attached.Covers(required) {
			return nil, ErrInsufficientDeposit
		}
	} else {
		if !params.Balance.IsZero() {
			return nil, ErrNotNativeToken
		}
		if !attached.Covers(e.minCreateDeposit) {
			return nil, ErrInsufficientDeposit
		}
	}

	return e.createStream(ctx, actor, params, tokenID)
}

// createStream persists a validated stream. Both the native Create path
// and the token-transfer notification path land here.
func (e *Engine) createStream(ctx context.Context, owner string, params stream.CreateParams, tokenID token.TokenID) (*stream.Stream, error) {
	now := e.clock()
	s := &stream.Stream{
		Entity:        types.EntityAt(now),
		ID:            id.NewStreamID(),
		Description:   params.Description,
		OwnerID:       owner,
		ReceiverID:    params.ReceiverID,
		TokenID:       tokenID,
		Status:        stream.StatusInitialized,
		Balance:       params.Balance,
		TokensPerTick: params.TokensPerTick,
		AutoDeposit:   params.AutoDeposit,
		AccruedAt:     now,
	}

	if err := e.store.CreateStream(ctx, s); err != nil {
		return nil, err
	}
	if err := e.appendAction(ctx, s.ID, owner, action.Init, now); err != nil {
		return nil, err
	}

	e.plugins.EmitStreamCreated(ctx, s)
	e.logger.Info("stream created",
		"stream_id", s.ID.String(),
		"owner", owner,
		"receiver", s.ReceiverID,
		"token", params.TokenName,
	)
	return s, nil
}

// StartStream begins (or resumes) accrual. Owner only; legal from
// Initialized and Paused. Time spent outside Active never accrues, so
// the accrual anchor resets to now.
func (e *Engine) StartStream(ctx context.Context, actor string, streamID id.StreamID) error {
	s, err := e.getLive(ctx, streamID)
	if err != nil {
		return err
	}
	if !s.IsOwner(actor) {
		return ErrAccessDenied
	}
	if !s.Status.CanStart() {
		return ErrCannotStart
	}

	now := e.clock()
	s.Status = stream.StatusActive
	s.AccruedAt = now
	s.UpdatedAt = now

	if err := e.store.UpdateStream(ctx, s); err != nil {
		return err
	}
	if err := e.appendAction(ctx, streamID, actor, action.Start, now); err != nil {
		return err
	}

	e.plugins.EmitStreamStarted(ctx, s)
	return nil
}

// PauseStream suspends accrual. Owner or receiver; legal only from
// Active. Funds accrued up to the pause instant stay withdrawable.
func (e *Engine) PauseStream(ctx context.Context, actor string, streamID id.StreamID) error {
	s, err := e.getLive(ctx, streamID)
	if err != nil {
		return err
	}
	if !s.IsOwner(actor) && !s.IsReceiver(actor) {
		return ErrAccessDenied
	}
	if s.Status == stream.StatusPaused {
		return ErrPausePaused
	}
	if s.Status != stream.StatusActive {
		return ErrCannotPause
	}

	now := e.clock()
	s.Accrue(now, e.tick)
	s.Status = stream.StatusPaused
	s.UpdatedAt = now

	if err := e.store.UpdateStream(ctx, s); err != nil {
		return err
	}
	if err := e.appendAction(ctx, streamID, actor, action.Pause, now); err != nil {
		return err
	}

	e.plugins.EmitStreamPaused(ctx, s)
	return nil
}

// StopStream terminates a stream. Owner or receiver. Accrual is settled
// up to the stop instant, then everything still held is flushed out:
// accrued funds to the receiver, the undisbursed remainder to the
// owner. The stream ends Finished when its committed balance was fully
// disbursed, Interrupted otherwise, and accepts no further operations
// either way.
//
// The returned payouts are in flight, not delivered; the host drives
// each to completion through the transfer callbacks.
func (e *Engine) StopStream(ctx context.Context, actor string, streamID id.StreamID) ([]*transfer.Pending, error) {
	s, err := e.getLive(ctx, streamID)
	if err != nil {
		return nil, err
	}
	if !s.IsOwner(actor) && !s.IsReceiver(actor) {
		return nil, ErrAccessDenied
	}

	now := e.clock()
	s.Accrue(now, e.tick)

	// Terminal status is decided by the balance before the owner flush:
	// a stream that disbursed everything it was promised is Finished.
	if s.Balance.IsZero() {
		s.Status = stream.StatusFinished
	} else {
		s.Status = stream.StatusInterrupted
	}

	// Zero the balances and persist the terminal state before any payout
	// record exists: a store failure in between can under-pay, never
	// double-pay. A failed insert credits its leg back onto the
	// terminated record, where it stays visible to the host.
	flush := s.Available
	remainder := s.Balance
	s.Available = 0
	s.Balance = 0
	s.UpdatedAt = now
	if err := e.store.UpdateStream(ctx, s); err != nil {
		return nil, err
	}

	var payouts []*transfer.Pending
	if !flush.IsZero() {
		p, err := e.newPending(ctx, s, transfer.PurposeStopFlush, s.ReceiverID, flush, now)
		if err != nil {
			e.restoreCredit(ctx, s, transfer.PurposeStopFlush, flush)
			return nil, err
		}
		payouts = append(payouts, p)
	}
	if !remainder.IsZero() {
		p, err := e.newPending(ctx, s, transfer.PurposeRefund, s.OwnerID, remainder, now)
		if err != nil {
			e.restoreCredit(ctx, s, transfer.PurposeRefund, remainder)
			return nil, err
		}
		payouts = append(payouts, p)
	}

	if err := e.appendAction(ctx, streamID, actor, action.Stop, now); err != nil {
		return nil, err
	}

	e.plugins.EmitStreamStopped(ctx, s)
	e.logger.Info("stream stopped",
		"stream_id", s.ID.String(),
		"status", string(s.Status),
		"payouts", len(payouts),
	)
	return payouts, nil
}

// ──────────────────────────────────────────────────
// Balance movements
// ──────────────────────────────────────────────────

// Deposit commits attached native value to a stream. Anyone may fund a
// stream; fungible-token deposits must come through OnTokenTransfer
// instead.
func (e *Engine) Deposit(ctx context.Context, actor string, streamID id.StreamID, amount types.Balance) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}

	s, err := e.getLive(ctx, streamID)
	if err != nil {
		return err
	}
	if !e.registry.IsNative(s.TokenID) {
		return ErrNotNativeToken
	}

	return e.deposit(ctx, actor, s, amount)
}

// deposit books committed funds onto a live stream. Accrual is settled
// first so the new funds only start releasing from now.
func (e *Engine) deposit(ctx context.Context, actor string, s *stream.Stream, amount types.Balance) error {
	now := e.clock()
	s.Accrue(now, e.tick)
	s.Balance = s.Balance.Add(amount)
	s.UpdatedAt = now

	if err := e.store.UpdateStream(ctx, s); err != nil {
		return err
	}
	if err := e.appendAction(ctx, s.ID, actor, action.Deposit(amount), now); err != nil {
		return err
	}

	e.plugins.EmitDeposit(ctx, s.ID.String(), uint64(amount))
	return nil
}

// Withdraw pays accrued funds out to the receiver. Receiver only. The
// amount leaves the stream's accounting immediately and travels as a
// pending payout; a failed payout credits it back.
func (e *Engine) Withdraw(ctx context.Context, actor string, streamID id.StreamID, amount types.Balance) (*transfer.Pending, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	s, err := e.getLive(ctx, streamID)
	if err != nil {
		return nil, err
	}
	if !s.IsReceiver(actor) {
		return nil, ErrAccessDenied
	}

	now := e.clock()
	s.Accrue(now, e.tick)
	if !s.Available.Covers(amount) {
		return nil, ErrInsufficientFunds
	}
	s.Available = s.Available.Sub(amount)
	s.UpdatedAt = now

	// The debit lands before any payout record exists: a store failure
	// in between can under-pay, never double-pay.
	if err := e.store.UpdateStream(ctx, s); err != nil {
		return nil, err
	}
	p, err := e.newPending(ctx, s, transfer.PurposeWithdraw, s.ReceiverID, amount, now)
	if err != nil {
		e.restoreCredit(ctx, s, transfer.PurposeWithdraw, amount)
		return nil, err
	}
	if err := e.appendAction(ctx, streamID, actor, action.Withdraw(amount), now); err != nil {
		return nil, err
	}

	e.plugins.EmitWithdraw(ctx, s.ID.String(), uint64(amount))
	return p, nil
}

// Refund returns undisbursed committed funds to the owner. Owner only.
func (e *Engine) Refund(ctx context.Context, actor string, streamID id.StreamID, amount types.Balance) (*transfer.Pending, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}

	s, err := e.getLive(ctx, streamID)
	if err != nil {
		return nil, err
	}
	if !s.IsOwner(actor) {
		return nil, ErrAccessDenied
	}

	now := e.clock()
	s.Accrue(now, e.tick)
	if !s.Balance.Covers(amount) {
		return nil, ErrInsufficientFunds
	}
	s.Balance = s.Balance.Sub(amount)
	s.UpdatedAt = now

	if err := e.store.UpdateStream(ctx, s); err != nil {
		return nil, err
	}
	p, err := e.newPending(ctx, s, transfer.PurposeRefund, s.OwnerID, amount, now)
	if err != nil {
		e.restoreCredit(ctx, s, transfer.PurposeRefund, amount)
		return nil, err
	}
	if err := e.appendAction(ctx, streamID, actor, action.Refund(amount), now); err != nil {
		return nil, err
	}

	e.plugins.EmitRefund(ctx, s.ID.String(), uint64(amount))
	return p, nil
}

// SetAutoDeposit flips the auto-deposit flag. Owner only. The change is
// always logged, even when the flag already had the requested value, so
// the log reflects caller intent.
func (e *Engine) SetAutoDeposit(ctx context.Context, actor string, streamID id.StreamID, enabled bool) error {
	s, err := e.getLive(ctx, streamID)
	if err != nil {
		return err
	}
	if !s.IsOwner(actor) {
		return ErrAccessDenied
	}

	now := e.clock()
	s.AutoDeposit = enabled
	s.UpdatedAt = now

	kind := action.DisableAutoDeposit
	if enabled {
		kind = action.EnableAutoDeposit
	}

	if err := e.store.UpdateStream(ctx, s); err != nil {
		return err
	}
	if err := e.appendAction(ctx, streamID, actor, kind, now); err != nil {
		return err
	}

	e.plugins.EmitAutoDepositToggled(ctx, s.ID.String(), enabled)
	return nil
}
