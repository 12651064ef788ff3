package streampay

import (
	"context"

	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/transfer"
)

// ──────────────────────────────────────────────────
// Payout execution callbacks
// ──────────────────────────────────────────────────
//
// The engine never moves value off-system itself. Each pending payout
// describes an external call chain the host must execute; the host
// reports each stage's outcome back through these callbacks, and only
// then does the payout's state advance. A payout counts as delivered
// solely when its final stage succeeded.

// GetTransfer retrieves a pending payout by ID.
func (e *Engine) GetTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Pending, error) {
	p, err := e.store.GetTransfer(ctx, transferID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListTransfers lists a stream's payouts. A nil stream ID matches all.
func (e *Engine) ListTransfers(ctx context.Context, streamID id.StreamID, opts transfer.ListOpts) ([]*transfer.Pending, error) {
	return e.store.ListTransfers(ctx, streamID, opts)
}

// TransferOperation builds the external call chain for a pending
// payout: one direct value transfer for the native token, or a
// register-then-transfer chain through the token's external account.
func (e *Engine) TransferOperation(p *transfer.Pending) (transfer.Operation, error) {
	return e.resolver.BuildTransfer(p.TokenID, p.Recipient, p.Amount)
}

// AdvanceTransfer records that the registration stage of a non-native
// payout succeeded, moving it to the transfer stage.
func (e *Engine) AdvanceTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Pending, error) {
	p, err := e.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if p.State != transfer.StateAwaitingRegistration {
		return nil, ErrInvalidTransferState
	}

	p.State = transfer.StateAwaitingTransfer
	p.UpdatedAt = e.clock()
	if err := e.store.UpdateTransfer(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CompleteTransfer records that the value-moving stage succeeded. The
// payout is final: the funds are delivered and owed by no one.
func (e *Engine) CompleteTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Pending, error) {
	p, err := e.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if p.State != transfer.StateAwaitingTransfer {
		return nil, ErrInvalidTransferState
	}

	p.State = transfer.StateCompleted
	p.UpdatedAt = e.clock()
	if err := e.store.UpdateTransfer(ctx, p); err != nil {
		return nil, err
	}

	e.plugins.EmitTransferResolved(ctx, p)
	e.logger.Info("transfer completed",
		"transfer_id", p.ID.String(),
		"stream_id", p.StreamID.String(),
		"amount", p.Amount.String(),
	)
	return p, nil
}

// FailTransfer records that a stage failed. The payout is final and the
// amount is credited back onto the stream it left — available balance
// for receiver payouts, committed balance for owner refunds — so the
// books never lose the funds. The credit lands even on a terminated
// stream; ReissueTransfer recovers funds stuck there.
func (e *Engine) FailTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Pending, error) {
	p, err := e.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if p.State.IsFinal() {
		return nil, ErrInvalidTransferState
	}

	now := e.clock()
	p.State = transfer.StateFailed
	p.UpdatedAt = now
	if err := e.store.UpdateTransfer(ctx, p); err != nil {
		return nil, err
	}

	s, err := e.store.GetStream(ctx, p.StreamID)
	if err != nil {
		return nil, err
	}
	switch p.Purpose {
	case transfer.PurposeRefund:
		s.Balance = s.Balance.Add(p.Amount)
	default:
		s.Available = s.Available.Add(p.Amount)
	}
	s.UpdatedAt = now
	if err := e.store.UpdateStream(ctx, s); err != nil {
		return nil, err
	}

	e.plugins.EmitTransferFailed(ctx, p)
	e.logger.Warn("transfer failed",
		"transfer_id", p.ID.String(),
		"stream_id", p.StreamID.String(),
		"purpose", string(p.Purpose),
		"amount", p.Amount.String(),
	)
	return p, nil
}

// ReissueTransfer re-debits the funds a failed payout credited back and
// opens a fresh payout for the same purpose, recipient, and amount. It
// works on terminated streams too — it is recovery, not a lifecycle
// operation.
func (e *Engine) ReissueTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Pending, error) {
	failed, err := e.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if failed.State != transfer.StateFailed {
		return nil, ErrInvalidTransferState
	}

	s, err := e.store.GetStream(ctx, failed.StreamID)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	switch failed.Purpose {
	case transfer.PurposeRefund:
		if !s.Balance.Covers(failed.Amount) {
			return nil, ErrInsufficientFunds
		}
		s.Balance = s.Balance.Sub(failed.Amount)
	default:
		if !s.Available.Covers(failed.Amount) {
			return nil, ErrInsufficientFunds
		}
		s.Available = s.Available.Sub(failed.Amount)
	}
	s.UpdatedAt = now

	// Re-debit first, then insert the fresh payout. A failed insert
	// restores the credit and leaves the original payout reissuable.
	if err := e.store.UpdateStream(ctx, s); err != nil {
		return nil, err
	}
	p, err := e.newPending(ctx, s, failed.Purpose, failed.Recipient, failed.Amount, now)
	if err != nil {
		e.restoreCredit(ctx, s, failed.Purpose, failed.Amount)
		return nil, err
	}
	return p, nil
}
