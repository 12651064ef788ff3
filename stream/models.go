// Package stream defines the payment stream aggregate and its lifecycle
// states. The engine in the root package owns all transitions; this
// package holds the model, the pure status predicates, and the accrual
// arithmetic that converts elapsed time into releasable funds.
package stream

import (
	"time"

	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/token"
	"github.com/xraph/streampay/types"
)

// Status is a stream's lifecycle state.
type Status string

const (
	StatusInitialized Status = "INITIALIZED"
	StatusActive      Status = "ACTIVE"
	StatusPaused      Status = "PAUSED"
	StatusInterrupted Status = "INTERRUPTED"
	StatusFinished    Status = "FINISHED"
)

// IsTerminated reports whether the status is terminal. Terminal streams
// accept no further lifecycle or balance operations; the decision is a
// pure function of status and nothing else.
func (s Status) IsTerminated() bool {
	return s == StatusInterrupted || s == StatusFinished
}

// CanStart reports whether a Start transition is legal from this status.
func (s Status) CanStart() bool {
	return s == StatusInitialized || s == StatusPaused
}

// MaxDescription bounds the free-text description field.
const MaxDescription = 255

// Stream is a committed, time-based payout arrangement from an owner to
// a receiver in a specific token.
//
// Balance is the committed, not-yet-released amount. Available is the
// accrued amount the receiver may withdraw. Funds move from Balance to
// Available as ticks elapse while the stream is Active; they leave the
// stream only through Withdraw, Refund, or the final Stop flush.
type Stream struct {
	types.Entity
	ID            id.StreamID   `json:"id"`
	Description   string        `json:"description,omitempty"`
	OwnerID       string        `json:"owner_id"`
	ReceiverID    string        `json:"receiver_id"`
	TokenID       token.TokenID `json:"token_id"`
	Status        Status        `json:"status"`
	Balance       types.Balance `json:"balance"`
	Available     types.Balance `json:"available"`
	TokensPerTick types.Balance `json:"tokens_per_tick"`
	AutoDeposit   bool          `json:"auto_deposit_enabled"`
	AccruedAt     time.Time     `json:"accrued_at"`
}

// Accrue moves the funds released by whole ticks elapsed between
// AccruedAt and now from Balance to Available, and advances AccruedAt by
// exactly the ticks consumed. It is a no-op unless the stream is Active.
//
// The move is capped at the committed balance, so accrual can neither go
// negative nor release more than was deposited. When the cap is hit the
// stream is fully disbursed and AccruedAt jumps to now.
func (s *Stream) Accrue(now time.Time, tick time.Duration) types.Balance {
	if s.Status != StatusActive || s.TokensPerTick.IsZero() || tick <= 0 {
		return 0
	}
	elapsed := now.Sub(s.AccruedAt)
	if elapsed < tick {
		return 0
	}
	ticks := uint64(elapsed / tick)

	moved := s.TokensPerTick.SaturatingMul(ticks)
	if moved >= s.Balance {
		moved = s.Balance
		s.AccruedAt = now
	} else {
		s.AccruedAt = s.AccruedAt.Add(time.Duration(ticks) * tick)
	}
	s.Balance = s.Balance.Sub(moved)
	s.Available = s.Available.Add(moved)
	return moved
}

// IsOwner reports whether the account is the stream's owner.
func (s *Stream) IsOwner(account string) bool { return account == s.OwnerID }

// IsReceiver reports whether the account is the stream's receiver.
func (s *Stream) IsReceiver(account string) bool { return account == s.ReceiverID }

// CreateParams is the validated creation intent for a new stream.
type CreateParams struct {
	Description   string        `json:"description,omitempty"`
	OwnerID       string        `json:"owner_id"`
	ReceiverID    string        `json:"receiver_id"`
	TokenName     string        `json:"token_name"`
	Balance       types.Balance `json:"balance"`
	TokensPerTick types.Balance `json:"tokens_per_tick"`
	AutoDeposit   bool          `json:"auto_deposit_enabled"`
}

// View is the read-only external projection of a Stream.
type View struct {
	StreamID      string        `json:"stream_id"`
	Description   string        `json:"description,omitempty"`
	OwnerID       string        `json:"owner_id"`
	ReceiverID    string        `json:"receiver_id"`
	TokenName     string        `json:"token_name"`
	Status        string        `json:"status"`
	Balance       types.Balance `json:"balance"`
	Available     types.Balance `json:"available"`
	TokensPerTick types.Balance `json:"tokens_per_tick"`
	AutoDeposit   bool          `json:"auto_deposit_enabled"`
}

// ViewOf projects a Stream, resolving its token symbol through the
// registry it was created against.
func ViewOf(s *Stream, reg *token.Registry) View {
	name, _ := reg.ResolveName(s.TokenID) //nolint:errcheck // stored IDs were validated at creation
	return View{
		StreamID:      s.ID.String(),
		Description:   s.Description,
		OwnerID:       s.OwnerID,
		ReceiverID:    s.ReceiverID,
		TokenName:     name,
		Status:        string(s.Status),
		Balance:       s.Balance,
		Available:     s.Available,
		TokensPerTick: s.TokensPerTick,
		AutoDeposit:   s.AutoDeposit,
	}
}
