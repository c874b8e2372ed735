package errors

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input")

	ErrNotFound     = errors.New("not found")
	ErrBusinessRule = errors.New("business rule violation")

	ErrExternalService = errors.New("external service error")
	ErrTimeout         = errors.New("timeout error")

	ErrInternal = errors.New("internal error")
)

// Swap-path errors. ErrBusy is a re-entrancy rejection, not a fault: the
// second attempt resolves immediately and session state is untouched.
var (
	ErrNoWalletFound          = errors.New("no wallet provider found")
	ErrBusy                   = errors.New("operation already in progress")
	ErrNetworkSwitchFailed    = errors.New("network switch failed")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrChainTransactionFailed = errors.New("chain transaction failed")
	ErrDataUnavailable        = errors.New("market data unavailable")
)
