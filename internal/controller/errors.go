package controller

import "errors"

// Guard and authorization failures are distinct sentinels so callers can tell
// "not yet" outcomes apart from real faults without string matching.
var (
	// Authorization.
	ErrNotOwner   = errors.New("caller is not an owner")
	ErrNotManager = errors.New("caller is not a manager")

	// Configuration validation.
	ErrInvalidConfig = errors.New("invalid config")

	// Mint guards, in the order ExecuteMint checks them.
	ErrMiningDisabled      = errors.New("auto mining disabled")
	ErrAmountOutOfRange    = errors.New("mint amount outside configured bounds")
	ErrCooldownActive      = errors.New("cooldown active")
	ErrGasPriceTooHigh     = errors.New("gas price above maximum")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPriceTooHigh        = errors.New("unit price above maximum")

	// Withdrawals.
	ErrInvalidRecipient  = errors.New("recipient missing")
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
)

// IsGuardFailure reports whether err is an expected steady-state mint guard
// outcome (disabled, bounds, cooldown, gas, balance, price) rather than an
// authorization, validation, or transport fault.
func IsGuardFailure(err error) bool {
	for _, guard := range []error{
		ErrMiningDisabled,
		ErrAmountOutOfRange,
		ErrCooldownActive,
		ErrGasPriceTooHigh,
		ErrInsufficientBalance,
		ErrPriceTooHigh,
		ErrNothingToWithdraw,
	} {
		if errors.Is(err, guard) {
			return true
		}
	}
	return false
}
