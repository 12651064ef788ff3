// Package action defines the append-only per-stream action log.
//
// Every externally triggered effect on a stream is recorded as exactly one
// Action. The log is insertion-ordered and immutable: entries are never
// updated or removed, so a stream's full balance history can be replayed
// from its log alone.
package action

import (
	"time"

	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/types"
)

// Kind is the closed set of recordable effects. It is a sealed sum type:
// amount-bearing kinds (Deposit, Withdraw, Refund) carry the amount in
// the variant itself, so a match over Kind can never observe an amount
// on a kind that has none.
type Kind interface {
	// Code returns the stable persistence code for the kind.
	Code() string
	// Label returns the external display label used in views.
	Label() string
	// Amount returns the carried amount and whether the kind has one.
	Amount() (types.Balance, bool)

	isKind()
}

type plainKind struct {
	code  string
	label string
}

func (k plainKind) Code() string                  { return k.code }
func (k plainKind) Label() string                 { return k.label }
func (k plainKind) Amount() (types.Balance, bool) { return 0, false }
func (plainKind) isKind()                         {}

// Kinds without a payload.
var (
	Init               Kind = plainKind{code: "init", label: "Init"}
	Start              Kind = plainKind{code: "start", label: "Start"}
	Pause              Kind = plainKind{code: "pause", label: "Pause"}
	Stop               Kind = plainKind{code: "stop", label: "Stop"}
	EnableAutoDeposit  Kind = plainKind{code: "enable_auto_deposit", label: "Auto-deposit enabled"}
	DisableAutoDeposit Kind = plainKind{code: "disable_auto_deposit", label: "Auto-deposit disabled"}
)

type amountKind struct {
	code   string
	label  string
	amount types.Balance
}

func (k amountKind) Code() string                  { return k.code }
func (k amountKind) Label() string                 { return k.label }
func (k amountKind) Amount() (types.Balance, bool) { return k.amount, true }
func (amountKind) isKind()                         {}

// Deposit records funds committed to a stream.
func Deposit(amount types.Balance) Kind {
	return amountKind{code: "deposit", label: "Deposit", amount: amount}
}

// Withdraw records accrued funds paid out to the receiver.
func Withdraw(amount types.Balance) Kind {
	return amountKind{code: "withdraw", label: "Withdraw", amount: amount}
}

// Refund records undisbursed funds returned to the owner.
func Refund(amount types.Balance) Kind {
	return amountKind{code: "refund", label: "Refund", amount: amount}
}

// FromCode reconstructs a Kind from its persistence code and stored
// amount. Returns false for an unknown code.
func FromCode(code string, amount types.Balance) (Kind, bool) {
	switch code {
	case "init":
		return Init, true
	case "start":
		return Start, true
	case "pause":
		return Pause, true
	case "stop":
		return Stop, true
	case "enable_auto_deposit":
		return EnableAutoDeposit, true
	case "disable_auto_deposit":
		return DisableAutoDeposit, true
	case "deposit":
		return Deposit(amount), true
	case "withdraw":
		return Withdraw(amount), true
	case "refund":
		return Refund(amount), true
	}
	return nil, false
}

// Action is one immutable, timestamped record of a caller-initiated
// effect on a stream.
type Action struct {
	ID        id.ActionID `json:"id"`
	StreamID  id.StreamID `json:"stream_id"`
	Actor     string      `json:"actor"`
	Kind      Kind        `json:"-"`
	Timestamp time.Time   `json:"timestamp"`
}

// View is the read-only external projection of an Action. Amount is
// present only for the amount-bearing kinds.
type View struct {
	Actor      string         `json:"actor"`
	ActionType string         `json:"action_type"`
	Amount     *types.Balance `json:"amount,omitempty"`
	Timestamp  int64          `json:"timestamp"`
}

// ViewOf projects an Action into its external representation.
func ViewOf(a *Action) View {
	v := View{
		Actor:      a.Actor,
		ActionType: a.Kind.Label(),
		Timestamp:  a.Timestamp.UnixNano(),
	}
	if amount, ok := a.Kind.Amount(); ok {
		v.Amount = &amount
	}
	return v
}

// Views projects a slice of actions, preserving order.
func Views(actions []*Action) []View {
	result := make([]View, len(actions))
	for i, a := range actions {
		result[i] = ViewOf(a)
	}
	return result
}
