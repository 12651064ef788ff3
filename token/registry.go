// Package token provides the static token registry backing stream
// creation, payout routing, and deposit-notification validation.
//
// The registry is immutable configuration, not runtime state: a process
// builds it once at startup and replacing the token set means building a
// new, higher-versioned Registry value. Historical routing decisions stay
// auditable because no snapshot is ever mutated in place.
package token

import "fmt"

// TokenID is a dense index into the registry. ID 0 is reserved for the
// host platform's native currency.
type TokenID uint32

// NativeTokenID identifies the native currency.
const NativeTokenID TokenID = 0

// Token is one registry entry. Account is the external account that
// mints and holds the token; it is empty for the native token, which is
// routed via direct value transfer instead.
type Token struct {
	Symbol  string `json:"symbol"`
	Account string `json:"account"`
}

// Registry is an immutable token table. The zero value is unusable;
// construct with New or Default.
type Registry struct {
	version int
	tokens  []Token
}

// New builds a Registry from a token snapshot. The first entry must be
// the native token (empty account).
func New(version int, tokens []Token) (*Registry, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("token: registry requires at least the native token")
	}
	if tokens[0].Account != "" {
		return nil, fmt.Errorf("token: entry 0 must be the native token (got account %q)", tokens[0].Account)
	}
	for i, tok := range tokens[1:] {
		if tok.Account == "" {
			return nil, fmt.Errorf("token: %s at index %d has no account", tok.Symbol, i+1)
		}
	}

	snapshot := make([]Token, len(tokens))
	copy(snapshot, tokens)
	return &Registry{version: version, tokens: snapshot}, nil
}

// Default returns the built-in token table.
func Default() *Registry {
	r, err := New(1, []Token{
		{Symbol: "NEAR"},
		{Symbol: "DACHA", Account: "dacha.tkn.near"},
		{Symbol: "TARAS", Account: "dev-1630798753809-34755859843881"},
	})
	if err != nil {
		panic(fmt.Sprintf("token: default registry: %v", err))
	}
	return r
}

// Version returns the snapshot version.
func (r *Registry) Version() int { return r.version }

// Len returns the number of configured tokens.
func (r *Registry) Len() int { return len(r.tokens) }

// ResolveID returns the TokenID for a symbol, or false if the symbol is
// not configured. The scan is linear; the table is small by design.
func (r *Registry) ResolveID(symbol string) (TokenID, bool) {
	for i := range r.tokens {
		if r.tokens[i].Symbol == symbol {
			return TokenID(i), true
		}
	}
	return 0, false
}

// ResolveName returns the symbol for a TokenID. Callers must only pass
// IDs obtained from validated input; an out-of-range ID is an error.
func (r *Registry) ResolveName(tokenID TokenID) (string, error) {
	if int(tokenID) >= len(r.tokens) {
		return "", fmt.Errorf("token: id %d out of range (registry has %d tokens)", tokenID, len(r.tokens))
	}
	return r.tokens[tokenID].Symbol, nil
}

// Account returns the external token account for a TokenID. The native
// token has no account.
func (r *Registry) Account(tokenID TokenID) (string, error) {
	if int(tokenID) >= len(r.tokens) {
		return "", fmt.Errorf("token: id %d out of range (registry has %d tokens)", tokenID, len(r.tokens))
	}
	return r.tokens[tokenID].Account, nil
}

// ResolveAccount returns the TokenID whose external account matches, or
// false when no configured token uses that account. The native token's
// empty account never matches.
func (r *Registry) ResolveAccount(account string) (TokenID, bool) {
	if account == "" {
		return 0, false
	}
	for i := range r.tokens {
		if r.tokens[i].Account == account {
			return TokenID(i), true
		}
	}
	return 0, false
}

// IsNative returns true iff the ID denotes the native currency.
func (r *Registry) IsNative(tokenID TokenID) bool { return tokenID == NativeTokenID }

// Tokens returns a copy of the token snapshot.
func (r *Registry) Tokens() []Token {
	snapshot := make([]Token, len(r.tokens))
	copy(snapshot, r.tokens)
	return snapshot
}
