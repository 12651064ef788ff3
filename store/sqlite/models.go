package sqlite

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/streampay/action"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/token"
	"github.com/xraph/streampay/transfer"
	"github.com/xraph/streampay/types"
)

// Balances are stored as decimal TEXT: they are full-range uint64
// values and SQLite integers are signed 64-bit.

// ==================== Stream models ====================

type streamModel struct {
	grove.BaseModel `grove:"table:streampay_streams"`

	ID            string    `grove:"id,pk"`
	Description   string    `grove:"description"`
	OwnerID       string    `grove:"owner_id"`
	ReceiverID    string    `grove:"receiver_id"`
	TokenID       int64     `grove:"token_id"`
	Status        string    `grove:"status"`
	Balance       string    `grove:"balance"`
	Available     string    `grove:"available"`
	TokensPerTick string    `grove:"tokens_per_tick"`
	AutoDeposit   bool      `grove:"auto_deposit"`
	AccruedAt     time.Time `grove:"accrued_at"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toStreamModel(s *stream.Stream) *streamModel {
	return &streamModel{
		ID:            s.ID.String(),
		Description:   s.Description,
		OwnerID:       s.OwnerID,
		ReceiverID:    s.ReceiverID,
		TokenID:       int64(s.TokenID),
		Status:        string(s.Status),
		Balance:       s.Balance.String(),
		Available:     s.Available.String(),
		TokensPerTick: s.TokensPerTick.String(),
		AutoDeposit:   s.AutoDeposit,
		AccruedAt:     s.AccruedAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func fromStreamModel(m *streamModel) (*stream.Stream, error) {
	streamID, err := id.ParseStreamID(m.ID)
	if err != nil {
		return nil, err
	}
	balance, err := parseBalance(m.Balance)
	if err != nil {
		return nil, err
	}
	available, err := parseBalance(m.Available)
	if err != nil {
		return nil, err
	}
	perTick, err := parseBalance(m.TokensPerTick)
	if err != nil {
		return nil, err
	}

	return &stream.Stream{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            streamID,
		Description:   m.Description,
		OwnerID:       m.OwnerID,
		ReceiverID:    m.ReceiverID,
		TokenID:       token.TokenID(m.TokenID),
		Status:        stream.Status(m.Status),
		Balance:       balance,
		Available:     available,
		TokensPerTick: perTick,
		AutoDeposit:   m.AutoDeposit,
		AccruedAt:     m.AccruedAt,
	}, nil
}

// ==================== Action models ====================

type actionModel struct {
	grove.BaseModel `grove:"table:streampay_actions"`

	ID        string    `grove:"id,pk"`
	StreamID  string    `grove:"stream_id"`
	Actor     string    `grove:"actor"`
	Kind      string    `grove:"kind"`
	Amount    string    `grove:"amount"`
	Timestamp time.Time `grove:"timestamp"`
}

func toActionModel(a *action.Action) *actionModel {
	amount, _ := a.Kind.Amount()
	return &actionModel{
		ID:        a.ID.String(),
		StreamID:  a.StreamID.String(),
		Actor:     a.Actor,
		Kind:      a.Kind.Code(),
		Amount:    amount.String(),
		Timestamp: a.Timestamp,
	}
}

func fromActionModel(m *actionModel) (*action.Action, error) {
	actionID, err := id.ParseActionID(m.ID)
	if err != nil {
		return nil, err
	}
	streamID, err := id.ParseStreamID(m.StreamID)
	if err != nil {
		return nil, err
	}
	amount, err := parseBalance(m.Amount)
	if err != nil {
		return nil, err
	}
	kind, ok := action.FromCode(m.Kind, amount)
	if !ok {
		return nil, fmt.Errorf("streampay/sqlite: unknown action kind %q", m.Kind)
	}

	return &action.Action{
		ID:        actionID,
		StreamID:  streamID,
		Actor:     m.Actor,
		Kind:      kind,
		Timestamp: m.Timestamp,
	}, nil
}

// ==================== Transfer models ====================

type transferModel struct {
	grove.BaseModel `grove:"table:streampay_transfers"`

	ID        string    `grove:"id,pk"`
	StreamID  string    `grove:"stream_id"`
	Purpose   string    `grove:"purpose"`
	TokenID   int64     `grove:"token_id"`
	Recipient string    `grove:"recipient"`
	Amount    string    `grove:"amount"`
	State     string    `grove:"state"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toTransferModel(p *transfer.Pending) *transferModel {
	return &transferModel{
		ID:        p.ID.String(),
		StreamID:  p.StreamID.String(),
		Purpose:   string(p.Purpose),
		TokenID:   int64(p.TokenID),
		Recipient: p.Recipient,
		Amount:    p.Amount.String(),
		State:     string(p.State),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func fromTransferModel(m *transferModel) (*transfer.Pending, error) {
	transferID, err := id.ParseTransferID(m.ID)
	if err != nil {
		return nil, err
	}
	streamID, err := id.ParseStreamID(m.StreamID)
	if err != nil {
		return nil, err
	}
	amount, err := parseBalance(m.Amount)
	if err != nil {
		return nil, err
	}

	return &transfer.Pending{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        transferID,
		StreamID:  streamID,
		Purpose:   transfer.Purpose(m.Purpose),
		TokenID:   token.TokenID(m.TokenID),
		Recipient: m.Recipient,
		Amount:    amount,
		State:     transfer.State(m.State),
	}, nil
}

// parseBalance decodes a stored decimal amount column.
func parseBalance(s string) (types.Balance, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("streampay/sqlite: parse amount %q: %w", s, err)
	}
	return types.Balance(n), nil
}
