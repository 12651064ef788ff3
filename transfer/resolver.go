// Package transfer decides how a payout for a given token is routed and
// tracks each payout's deferred execution as an explicit state machine.
//
// The engine never executes transfers itself: it builds an Operation
// describing the external calls the host must issue, persists a Pending
// record, and advances that record as the host reports each stage's
// outcome. Funds are considered delivered only once the final stage has
// succeeded.
package transfer

import (
	"github.com/xraph/streampay/token"
	"github.com/xraph/streampay/types"
)

// GasPerCall is the bounded resource allowance attached to each external
// token-account call.
const GasPerCall uint64 = 10_000_000_000_000

// StepKind discriminates the two external call shapes.
type StepKind string

const (
	// StepRegister is an idempotent storage/registration request to an
	// external token account, required before that account will accept a
	// transfer to a new recipient.
	StepRegister StepKind = "register"
	// StepTransfer moves value: directly for the native token, or via the
	// external token account otherwise.
	StepTransfer StepKind = "transfer"
)

// Step is one external call in an operation chain.
type Step struct {
	Kind StepKind `json:"kind"`
	// TokenAccount is the external account the call targets. Empty for a
	// direct native transfer.
	TokenAccount string `json:"token_account,omitempty"`
	Recipient    string `json:"recipient"`
	// Amount is the value moved by a transfer step; zero for registration.
	Amount types.Balance `json:"amount,omitempty"`
	// Deposit is the value attached to the call itself.
	Deposit types.Balance `json:"deposit"`
	// Gas is the resource allowance for the call; zero for direct native
	// transfers, which need none.
	Gas uint64 `json:"gas,omitempty"`
	// RegistrationOnly marks a register step as registration-only so the
	// token account refunds any excess attachment.
	RegistrationOnly bool `json:"registration_only,omitempty"`
	// Memo is an optional transfer annotation.
	Memo string `json:"memo,omitempty"`
}

// Operation is the full deferred call chain for one payout. Steps run in
// order and each later step is contingent on the one before it.
type Operation struct {
	TokenID token.TokenID `json:"token_id"`
	Steps   []Step        `json:"steps"`
}

// Resolver routes payouts using an immutable token registry.
type Resolver struct {
	registry *token.Registry
}

// NewResolver creates a Resolver over the given registry.
func NewResolver(reg *token.Registry) *Resolver {
	return &Resolver{registry: reg}
}

// BuildTransfer describes the external calls needed to deliver amount to
// recipient in the given token.
//
// Native: exactly one direct value transfer. Non-native: an idempotent
// registration request to the token account (attaching one whole native
// token, refunded when the recipient is already registered), then the
// transfer itself with the minimal one-unit attachment the token
// convention requires. The function is pure: identical arguments always
// produce an equivalent chain.
func (r *Resolver) BuildTransfer(tokenID token.TokenID, recipient string, amount types.Balance) (Operation, error) {
	if r.registry.IsNative(tokenID) {
		return Operation{
			TokenID: tokenID,
			Steps: []Step{{
				Kind:      StepTransfer,
				Recipient: recipient,
				Amount:    amount,
				Deposit:   amount,
			}},
		}, nil
	}

	account, err := r.registry.Account(tokenID)
	if err != nil {
		return Operation{}, err
	}
	return Operation{
		TokenID: tokenID,
		Steps: []Step{
			{
				Kind:             StepRegister,
				TokenAccount:     account,
				Recipient:        recipient,
				Deposit:          types.Native(1),
				Gas:              GasPerCall,
				RegistrationOnly: true,
			},
			{
				Kind:         StepTransfer,
				TokenAccount: account,
				Recipient:    recipient,
				Amount:       amount,
				Deposit:      types.OneUnit,
				Gas:          GasPerCall,
			},
		},
	}, nil
}
