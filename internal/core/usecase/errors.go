package usecase

import (
	"errors"

	"github.com/Nzyazin/bank/internal/core/account"
	"github.com/Nzyazin/bank/internal/core/analytics"
)

// Ошибки сервиса; доменные ошибки переэкспортируются для транспортного слоя
var (
	ErrInvalidOperationType = errors.New("invalid operation type")
	ErrInvalidAccountKind   = errors.New("invalid account kind")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountExists        = errors.New("account already exists")

	ErrInvalidAmount         = account.ErrInvalidAmount
	ErrInsufficientFunds     = account.ErrInsufficientFunds
	ErrInvalidTransferTarget = account.ErrInvalidTransferTarget
	ErrInvalidRate           = account.ErrInvalidRate
	ErrInterestNotSupported  = account.ErrInterestNotSupported
	ErrInvalidSortKey        = analytics.ErrInvalidSortKey
	ErrNoData                = analytics.ErrNoData
)

// isRejection reports whether err is a business rule violation rather than
// an unexpected failure.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrInvalidOperationType,
		ErrInvalidAccountKind,
		ErrAccountNotFound,
		ErrAccountExists,
		account.ErrInvalidAmount,
		account.ErrInsufficientFunds,
		account.ErrInvalidTransferTarget,
		account.ErrInvalidRate,
		account.ErrInterestNotSupported,
		account.ErrInvalidHolder,
		account.ErrInvalidAccountNumber,
		account.ErrInvalidPolicy,
		analytics.ErrInvalidSortKey,
		analytics.ErrNoData,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
