package token_test

import (
	"testing"

	"github.com/xraph/streampay/token"
)

func TestDefaultRegistry(t *testing.T) {
	reg := token.Default()

	if reg.Version() != 1 {
		t.Errorf("Version: got %d, want 1", reg.Version())
	}
	if reg.Len() != 3 {
		t.Errorf("Len: got %d, want 3", reg.Len())
	}
	if !reg.IsNative(token.NativeTokenID) {
		t.Error("entry 0 should be native")
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		tokens []token.Token
	}{
		{"Empty", nil},
		{"FirstHasAccount", []token.Token{{Symbol: "NEAR", Account: "near.tkn"}}},
		{"FungibleWithoutAccount", []token.Token{
			{Symbol: "NEAR"},
			{Symbol: "DACHA"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := token.New(1, tt.tokens); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolveID(t *testing.T) {
	reg := token.Default()

	tests := []struct {
		symbol string
		id     token.TokenID
		ok     bool
	}{
		{"NEAR", 0, true},
		{"DACHA", 1, true},
		{"TARAS", 2, true},
		{"DOGE", 0, false},
		{"near", 0, false}, // symbols are case-sensitive
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			got, ok := reg.ResolveID(tt.symbol)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.id {
				t.Errorf("id: got %d, want %d", got, tt.id)
			}
		})
	}
}

func TestResolveName(t *testing.T) {
	reg := token.Default()

	name, err := reg.ResolveName(1)
	if err != nil {
		t.Fatal(err)
	}
	if name != "DACHA" {
		t.Errorf("got %q, want DACHA", name)
	}

	if _, err := reg.ResolveName(99); err == nil {
		t.Error("expected error for out-of-range ID")
	}
}

func TestAccount(t *testing.T) {
	reg := token.Default()

	account, err := reg.Account(1)
	if err != nil {
		t.Fatal(err)
	}
	if account != "dacha.tkn.near" {
		t.Errorf("got %q, want dacha.tkn.near", account)
	}

	// The native token has no external account.
	account, err = reg.Account(token.NativeTokenID)
	if err != nil {
		t.Fatal(err)
	}
	if account != "" {
		t.Errorf("native account: got %q, want empty", account)
	}

	if _, err := reg.Account(99); err == nil {
		t.Error("expected error for out-of-range ID")
	}
}

func TestResolveAccount(t *testing.T) {
	reg := token.Default()

	tests := []struct {
		name    string
		account string
		id      token.TokenID
		ok      bool
	}{
		{"DACHA", "dacha.tkn.near", 1, true},
		{"TARAS", "dev-1630798753809-34755859843881", 2, true},
		{"Unknown", "evil.near", 0, false},
		// The native token's empty account must never match, or any
		// caller with an empty identity would resolve as native.
		{"Empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reg.ResolveAccount(tt.account)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.id {
				t.Errorf("id: got %d, want %d", got, tt.id)
			}
		})
	}
}

func TestIsTrustedSender(t *testing.T) {
	reg := token.Default()

	tests := []struct {
		name    string
		account string
		want    bool
	}{
		{"ConfiguredToken", "dacha.tkn.near", true},
		{"OtherConfiguredToken", "dev-1630798753809-34755859843881", true},
		{"Arbitrary", "mallory.near", false},
		{"Symbol not account", "DACHA", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.IsTrustedSender(tt.account); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokensReturnsCopy(t *testing.T) {
	reg := token.Default()

	snapshot := reg.Tokens()
	snapshot[0].Symbol = "MUTATED"

	name, err := reg.ResolveName(token.NativeTokenID)
	if err != nil {
		t.Fatal(err)
	}
	if name != "NEAR" {
		t.Errorf("registry mutated through snapshot: got %q", name)
	}
}
