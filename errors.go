package streampay

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios. Every guard violation is
// detected before any mutation and rejected with one of these kinds; the
// messages are part of the external contract and stay stable.
var (
	// Deposit / funds errors
	ErrInsufficientDeposit = errors.New("streampay: attached deposit is not enough")
	ErrInsufficientFunds   = errors.New("streampay: requested amount exceeds disbursable balance")
	ErrInvalidAmount       = errors.New("streampay: amount must be positive")

	// Access errors
	ErrAccessDenied    = errors.New("streampay: caller has no access")
	ErrUntrustedSender = errors.New("streampay: sender is not a whitelisted token account")

	// Stream lifecycle errors
	ErrStreamNotAvailable = errors.New("streampay: stream does not exist or is terminated")
	ErrPausePaused        = errors.New("streampay: cannot pause paused stream")
	ErrCannotStart        = errors.New("streampay: cannot start stream, invalid stream status")
	ErrCannotPause        = errors.New("streampay: cannot pause stream, invalid stream status")

	// Validation errors
	ErrTextFieldTooLong = errors.New("streampay: text field is too long")
	ErrInvalidToken     = errors.New("streampay: invalid token name")
	ErrTokensMismatch   = errors.New("streampay: tokens mismatch")
	ErrNotNativeToken   = errors.New("streampay: only native tokens allowed in this method")
	ErrNotFungibleToken = errors.New("streampay: only fungible tokens allowed in this method")

	// Cron errors
	ErrCronDisabled = errors.New("streampay: cron calls disabled")

	// Transfer errors
	ErrTransferNotFound     = errors.New("streampay: transfer not found")
	ErrInvalidTransferState = errors.New("streampay: invalid transfer state for requested transition")

	// Store errors
	ErrNotFound          = errors.New("streampay: not found")
	ErrAlreadyExists     = errors.New("streampay: already exists")
	ErrStoreClosed       = errors.New("streampay: store is closed")
	ErrTransactionFailed = errors.New("streampay: transaction failed")
	ErrMigrationFailed   = errors.New("streampay: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("streampay: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStreamNotAvailable) ||
		errors.Is(err, ErrTransferNotFound)
}

// IsAccessDenied returns true if the error is an authorization failure.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrUntrustedSender)
}

// IsInvalidTransition returns true if the error is an illegal lifecycle
// transition for the stream's current status.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrPausePaused) ||
		errors.Is(err, ErrCannotStart) ||
		errors.Is(err, ErrCannotPause) ||
		errors.Is(err, ErrInvalidTransferState)
}

// IsValidation returns true if the error is an input constraint violation.
func IsValidation(err error) bool {
	if errors.Is(err, ErrTextFieldTooLong) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokensMismatch) ||
		errors.Is(err, ErrNotNativeToken) ||
		errors.Is(err, ErrNotFungibleToken) ||
		errors.Is(err, ErrInvalidAmount) {
		return true
	}
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsRetryable returns true if the error is temporary and the operation
// can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreClosed) ||
		errors.Is(err, ErrTransactionFailed)
}
