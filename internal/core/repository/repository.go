package repository

import (
	"context"
	"errors"

	"github.com/Nzyazin/bank/internal/core/account"
	"github.com/google/uuid"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")
)

// AccountRepository keeps live accounts. Returned pointers are the stored
// accounts themselves; mutation goes through the account's own methods.
type AccountRepository interface {
	Save(ctx context.Context, acc *account.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetByNumber(ctx context.Context, number string) (*account.Account, error)
	List(ctx context.Context) ([]*account.Account, error)
}
