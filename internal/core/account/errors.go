package account

import "errors"

var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInvalidTransferTarget = errors.New("invalid transfer target")
	ErrInvalidRate           = errors.New("interest rate must not be negative")
	ErrInterestNotSupported  = errors.New("interest is only supported by savings accounts")
	ErrInvalidHolder         = errors.New("holder must be in 'First Last' format")
	ErrInvalidAccountNumber  = errors.New("account number must match ACC-<digits>")
	ErrInvalidPolicy         = errors.New("invalid account policy")
	ErrBrokenChain           = errors.New("operation history is inconsistent")
)
