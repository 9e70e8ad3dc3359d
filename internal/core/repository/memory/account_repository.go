package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Nzyazin/bank/internal/core/account"
	"github.com/Nzyazin/bank/internal/core/logger"
	"github.com/Nzyazin/bank/internal/core/repository"
	"github.com/google/uuid"
)

type memoryAccountRepo struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*account.Account
	byNumber map[string]uuid.UUID
	log      logger.Logger
}

func NewMemoryAccountRepo(log logger.Logger) repository.AccountRepository {
	return &memoryAccountRepo{
		byID:     make(map[uuid.UUID]*account.Account),
		byNumber: make(map[string]uuid.UUID),
		log:      log,
	}
}

func (r *memoryAccountRepo) Save(ctx context.Context, acc *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[acc.ID()]; ok {
		return fmt.Errorf("%w: id %s", repository.ErrDuplicateAccount, acc.ID())
	}
	if _, ok := r.byNumber[acc.Number()]; ok {
		return fmt.Errorf("%w: number %s", repository.ErrDuplicateAccount, acc.Number())
	}

	r.byID[acc.ID()] = acc
	r.byNumber[acc.Number()] = acc.ID()
	r.log.Debug("Account stored",
		logger.StringField("account_id", acc.ID().String()),
		logger.StringField("number", acc.Number()))
	return nil
}

func (r *memoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: account with id %s", repository.ErrAccountNotFound, id)
	}
	return acc, nil
}

func (r *memoryAccountRepo) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byNumber[number]
	if !ok {
		return nil, fmt.Errorf("%w: account with number %s", repository.ErrAccountNotFound, number)
	}
	return r.byID[id], nil
}

// List returns accounts ordered by number.
func (r *memoryAccountRepo) List(ctx context.Context) ([]*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]*account.Account, 0, len(r.byID))
	for _, acc := range r.byID {
		out = append(out, acc)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Number() < out[j].Number()
	})
	return out, nil
}
