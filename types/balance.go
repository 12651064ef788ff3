// Package types provides common types used across Streampay.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Balance is a token amount in minimal (indivisible) units.
// All arithmetic is integer-only — no floating point.
//
// The native token is fixed at 10^9 minimal units per whole token, so
// Native(1) is one whole native token and CreateDeposit is 0.1 of one.
// Fungible tokens use whatever scale their issuing account defines; the
// engine never converts between scales.
type Balance uint64

// NativeScale is the number of minimal units in one whole native token.
const NativeScale Balance = 1_000_000_000

// Native returns a Balance of the given number of whole native tokens.
func Native(whole uint64) Balance { return Balance(whole) * NativeScale }

// Common protocol amounts.
const (
	// OneUnit is the minimal nonzero attachment required by fungible-token
	// transfer conventions.
	OneUnit Balance = 1

	// CreateDeposit is the minimum attached deposit required to create a
	// stream: 0.1 native tokens.
	CreateDeposit Balance = NativeScale / 10
)

// Arithmetic operations

// Add returns b + other. Panics on overflow — balances are conserved
// quantities and silent wraparound would mint funds.
func (b Balance) Add(other Balance) Balance {
	if uint64(other) > math.MaxUint64-uint64(b) {
		panic(fmt.Sprintf("balance: overflow adding %d to %d", other, b))
	}
	return b + other
}

// Sub returns b - other. Panics on underflow; callers must guard with
// Covers before subtracting.
func (b Balance) Sub(other Balance) Balance {
	if other > b {
		panic(fmt.Sprintf("balance: underflow subtracting %d from %d", other, b))
	}
	return b - other
}

// SaturatingMul returns b × qty, clamped to the maximum representable
// balance on overflow.
func (b Balance) SaturatingMul(qty uint64) Balance {
	if b == 0 || qty == 0 {
		return 0
	}
	if uint64(b) > math.MaxUint64/qty {
		return Balance(math.MaxUint64)
	}
	return b * Balance(qty)
}

// Comparison methods

// IsZero returns true if the balance is zero.
func (b Balance) IsZero() bool { return b == 0 }

// Covers returns true if the balance is at least other.
func (b Balance) Covers(other Balance) bool { return b >= other }

// Min returns the smaller of two balances.
func (b Balance) Min(other Balance) Balance {
	if b < other {
		return b
	}
	return other
}

// String returns the decimal minimal-unit representation.
func (b Balance) String() string {
	return strconv.FormatUint(uint64(b), 10)
}

// MarshalJSON implements json.Marshaler. Balances travel as decimal
// strings on the wire so that JSON consumers never round them through
// a float64.
func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON implements json.Unmarshaler. Accepts both the string
// form and a bare JSON number for convenience.
func (b *Balance) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n uint64
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return fmt.Errorf("balance: unmarshal %s: %w", data, err)
		}
		*b = Balance(n)
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("balance: parse %q: %w", s, err)
	}
	*b = Balance(n)
	return nil
}

// Sum calculates the sum of multiple balances. Panics on overflow.
func Sum(values ...Balance) Balance {
	var result Balance
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
