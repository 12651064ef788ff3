package token

// IsTrustedSender reports whether an inbound token-transfer notification
// originates from one of the configured token accounts. Deposit
// notifications from any other identity must be rejected — otherwise an
// arbitrary caller could forge a "funds received" message for funds it
// never sent.
//
// Only exact matches against non-empty configured accounts qualify; the
// native token's empty account never matches.
func (r *Registry) IsTrustedSender(account string) bool {
	if account == "" {
		return false
	}
	for i := range r.tokens {
		if r.tokens[i].Account == account {
			return true
		}
	}
	return false
}
