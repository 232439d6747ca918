package services

import (
	"errors"
	"fmt"
)

// Validation-class errors surfaced verbatim to clients. Handlers map them to
// status codes with errors.Is; none of them leave partial writes behind.
var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrBundleNotFound     = errors.New("token bundle not found")
	ErrTxnNotFound        = errors.New("transaction not found")

	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrTransferRestricted  = errors.New("only earned tokens can be transferred")
	ErrSelfTransfer        = errors.New("cannot transfer tokens to yourself")
	ErrAlreadyRegistered   = errors.New("already registered for this tournament")
	ErrRegistrationClosed  = errors.New("registration is not open")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")

	ErrCodeExpired  = errors.New("verification code has expired")
	ErrCodeMismatch = errors.New("invalid verification code")

	ErrDuplicateCallback = errors.New("transaction already settled")
)

// InsufficientBalanceError carries required vs available so the client can
// show how many tokens are missing. errors.Is(err, ErrInsufficientBalance)
// still matches it.
type InsufficientBalanceError struct {
	Required  int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient token balance: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
