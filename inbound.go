package streampay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

// CreateOrDeposit is the tagged payload carried by a fungible-token
// deposit notification. Exactly one variant is set: Create opens a new
// stream funded by the transferred amount, Deposit tops up an existing
// one.
type CreateOrDeposit struct {
	Create  *stream.CreateParams
	Deposit *id.StreamID
}

// NewCreateMsg builds a Create notification payload.
func NewCreateMsg(params stream.CreateParams) CreateOrDeposit {
	return CreateOrDeposit{Create: &params}
}

// NewDepositMsg builds a Deposit notification payload.
func NewDepositMsg(streamID id.StreamID) CreateOrDeposit {
	return CreateOrDeposit{Deposit: &streamID}
}

// MarshalJSON encodes the payload as a single-key tagged object:
// {"Create": {...}} or {"Deposit": "strm_..."}.
func (m CreateOrDeposit) MarshalJSON() ([]byte, error) {
	switch {
	case m.Create != nil && m.Deposit == nil:
		return json.Marshal(map[string]*stream.CreateParams{"Create": m.Create})
	case m.Deposit != nil && m.Create == nil:
		return json.Marshal(map[string]*id.StreamID{"Deposit": m.Deposit})
	}
	return nil, fmt.Errorf("streampay: message must set exactly one of Create or Deposit")
}

// UnmarshalJSON decodes the tagged object form.
func (m *CreateOrDeposit) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("streampay: unmarshal message: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("streampay: message must set exactly one of Create or Deposit (got %d keys)", len(raw))
	}

	if body, ok := raw["Create"]; ok {
		var params stream.CreateParams
		if err := json.Unmarshal(body, &params); err != nil {
			return fmt.Errorf("streampay: unmarshal Create message: %w", err)
		}
		*m = CreateOrDeposit{Create: &params}
		return nil
	}
	if body, ok := raw["Deposit"]; ok {
		var streamID id.StreamID
		if err := json.Unmarshal(body, &streamID); err != nil {
			return fmt.Errorf("streampay: unmarshal Deposit message: %w", err)
		}
		*m = CreateOrDeposit{Deposit: &streamID}
		return nil
	}
	return fmt.Errorf("streampay: unknown message variant")
}

// OnTokenTransfer handles a deposit notification from an external token
// account: tokenAccount is the notifying account, from is the user who
// sent the tokens, and amount is what arrived.
//
// The notification is only believed when tokenAccount is one of the
// configured token accounts; anything else is rejected before any state
// is read, since an arbitrary caller could otherwise forge a "funds
// received" message for funds it never sent.
func (e *Engine) OnTokenTransfer(ctx context.Context, tokenAccount, from string, amount types.Balance, msg CreateOrDeposit) (id.StreamID, error) {
	if !e.registry.IsTrustedSender(tokenAccount) {
		e.plugins.EmitUntrustedSender(ctx, tokenAccount)
		e.logger.Warn("rejected deposit notification", "sender", tokenAccount)
		return id.Nil, ErrUntrustedSender
	}
	tokenID, ok := e.registry.ResolveAccount(tokenAccount)
	if !ok {
		return id.Nil, ErrInvalidToken
	}
	if amount.IsZero() {
		return id.Nil, ErrInvalidAmount
	}

	switch {
	case msg.Create != nil && msg.Deposit == nil:
		params := *msg.Create
		if len(params.Description) > stream.MaxDescription {
			return id.Nil, ErrTextFieldTooLong
		}
		if params.ReceiverID == "" {
			return id.Nil, ValidationError{Field: "receiver_id", Message: "must not be empty"}
		}
		declared, ok := e.registry.ResolveID(params.TokenName)
		if !ok {
			return id.Nil, ErrInvalidToken
		}
		if declared != tokenID {
			return id.Nil, ErrTokensMismatch
		}
		// The transferred amount is the initial balance. A declared
		// balance, if any, must agree with what actually arrived.
		if !params.Balance.IsZero() && params.Balance != amount {
			return id.Nil, ErrInsufficientDeposit
		}
		params.Balance = amount

		owner := from
		if params.OwnerID != "" && params.OwnerID != from {
			return id.Nil, ErrAccessDenied
		}

		s, err := e.createStream(ctx, owner, params, tokenID)
		if err != nil {
			return id.Nil, err
		}
		return s.ID, nil

	case msg.Deposit != nil && msg.Create == nil:
		s, err := e.getLive(ctx, *msg.Deposit)
		if err != nil {
			return id.Nil, err
		}
		if s.TokenID != tokenID {
			return id.Nil, ErrTokensMismatch
		}
		if err := e.deposit(ctx, from, s, amount); err != nil {
			return id.Nil, err
		}
		return s.ID, nil
	}

	return id.Nil, ValidationError{Field: "msg", Message: "exactly one of Create or Deposit must be set"}
}
