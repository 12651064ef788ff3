package transfer

import (
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/token"
	"github.com/xraph/streampay/types"
)

// State is a pending payout's position in its deferred chain.
type State string

const (
	// StateAwaitingRegistration means the recipient-registration stage has
	// been issued and its outcome is not yet known. Non-native payouts
	// start here.
	StateAwaitingRegistration State = "awaiting_registration"
	// StateAwaitingTransfer means the value-moving stage has been issued.
	// Native payouts start here; non-native payouts arrive here only after
	// registration succeeded.
	StateAwaitingTransfer State = "awaiting_transfer"
	// StateCompleted means the final stage succeeded and the funds are
	// delivered.
	StateCompleted State = "completed"
	// StateFailed means a stage failed; the amount was credited back onto
	// the stream and is owed again.
	StateFailed State = "failed"
)

// IsFinal reports whether the state admits no further transitions.
func (s State) IsFinal() bool { return s == StateCompleted || s == StateFailed }

// Purpose records why a payout left the stream, which determines where a
// compensating credit lands on failure.
type Purpose string

const (
	// PurposeWithdraw pays accrued funds to the receiver; a failure
	// re-credits the stream's available balance.
	PurposeWithdraw Purpose = "withdraw"
	// PurposeRefund returns undisbursed funds to the owner; a failure
	// re-credits the committed balance.
	PurposeRefund Purpose = "refund"
	// PurposeStopFlush is the final disbursement of accrued funds to the
	// receiver when a stream stops; a failure re-credits available. The
	// remainder returned to the owner on stop travels as PurposeRefund.
	PurposeStopFlush Purpose = "stop_flush"
)

// Pending is the persisted record of one in-flight payout. It is created
// when funds leave a stream's accounting and advanced by host callbacks
// until it reaches a final state.
type Pending struct {
	types.Entity
	ID        id.TransferID `json:"id"`
	StreamID  id.StreamID   `json:"stream_id"`
	Purpose   Purpose       `json:"purpose"`
	TokenID   token.TokenID `json:"token_id"`
	Recipient string        `json:"recipient"`
	Amount    types.Balance `json:"amount"`
	State     State         `json:"state"`
}

// InitialState returns the state a new payout starts in for a token:
// native payouts have no registration stage.
func InitialState(reg *token.Registry, tokenID token.TokenID) State {
	if reg.IsNative(tokenID) {
		return StateAwaitingTransfer
	}
	return StateAwaitingRegistration
}
