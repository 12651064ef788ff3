package streampay

import "github.com/xraph/streampay/types"

// Re-export common types for convenience so users don't have to import types package.

// Balance is re-exported from types package.
type Balance = types.Balance

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Balance constructors and constants
var (
	Native = types.Native
	Sum    = types.Sum
)

// Re-export protocol amounts
const (
	NativeScale   = types.NativeScale
	OneUnit       = types.OneUnit
	CreateDeposit = types.CreateDeposit
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
