package types

import (
	"encoding/json"
	"testing"
)

func TestNative(t *testing.T) {
	tests := []struct {
		name  string
		whole uint64
		want  Balance
	}{
		{"Zero", 0, 0},
		{"One", 1, 1_000_000_000},
		{"Ten", 10, 10_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Native(tt.whole); got != tt.want {
				t.Errorf("Native(%d): got %d, want %d", tt.whole, got, tt.want)
			}
		})
	}
}

func TestProtocolAmounts(t *testing.T) {
	if CreateDeposit != NativeScale/10 {
		t.Errorf("CreateDeposit: got %d, want %d", CreateDeposit, NativeScale/10)
	}
	if OneUnit != 1 {
		t.Errorf("OneUnit: got %d, want 1", OneUnit)
	}
}

func TestBalanceArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   func() Balance
		want Balance
	}{
		{"Add", func() Balance { return Balance(100).Add(200) }, 300},
		{"Add at limit", func() Balance { return Balance(1<<64 - 2).Add(1) }, Balance(1<<64 - 1)},
		{"Sub", func() Balance { return Balance(500).Sub(200) }, 300},
		{"Sub to zero", func() Balance { return Balance(500).Sub(500) }, 0},
		{"SaturatingMul", func() Balance { return Balance(100).SaturatingMul(3) }, 300},
		{"SaturatingMul by zero", func() Balance { return Balance(100).SaturatingMul(0) }, 0},
		{"SaturatingMul overflow clamps", func() Balance { return Balance(1 << 63).SaturatingMul(4) }, Balance(1<<64 - 1)},
		{"Min smaller", func() Balance { return Balance(50).Min(100) }, 50},
		{"Min larger", func() Balance { return Balance(200).Min(100) }, 100},
		{"Sum", func() Balance { return Sum(1, 2, 3) }, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op(); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBalanceAddOverflowPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on overflow")
		}
	}()

	_ = Balance(1<<64 - 1).Add(1)
}

func TestBalanceSubUnderflowPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on underflow")
		}
	}()

	_ = Balance(100).Sub(200)
}

func TestBalanceComparison(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Balance
		covers bool
	}{
		{"Covers larger", 200, 100, true},
		{"Covers equal", 100, 100, true},
		{"Does not cover", 50, 100, false},
		{"Zero covers zero", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Covers(tt.b); got != tt.covers {
				t.Errorf("Covers: got %v, want %v", got, tt.covers)
			}
		})
	}

	if !Balance(0).IsZero() {
		t.Error("IsZero: got false for zero")
	}
	if Balance(1).IsZero() {
		t.Error("IsZero: got true for nonzero")
	}
}

func TestBalanceJSON(t *testing.T) {
	// Balances marshal as decimal strings so large values never round
	// through a float64.
	big := Balance(1<<64 - 1)
	data, err := json.Marshal(big)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"18446744073709551615"` {
		t.Errorf("Marshal: got %s", data)
	}

	var fromString Balance
	if err := json.Unmarshal([]byte(`"12345"`), &fromString); err != nil {
		t.Fatal(err)
	}
	if fromString != 12345 {
		t.Errorf("Unmarshal string: got %d, want 12345", fromString)
	}

	var fromNumber Balance
	if err := json.Unmarshal([]byte(`6789`), &fromNumber); err != nil {
		t.Fatal(err)
	}
	if fromNumber != 6789 {
		t.Errorf("Unmarshal number: got %d, want 6789", fromNumber)
	}

	var invalid Balance
	if err := json.Unmarshal([]byte(`"-1"`), &invalid); err == nil {
		t.Error("expected error for negative string")
	}
	if err := json.Unmarshal([]byte(`"abc"`), &invalid); err == nil {
		t.Error("expected error for non-numeric string")
	}
}
