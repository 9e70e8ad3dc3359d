package account

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind определяет вариант счета
type Kind string

const (
	KindBasic    Kind = "basic"
	KindChecking Kind = "checking"
	KindSavings  Kind = "savings"
)

func (k Kind) Valid() bool {
	switch k {
	case KindBasic, KindChecking, KindSavings:
		return true
	default:
		return false
	}
}

// Policy carries the per-variant rules. OverdraftLimit applies to checking
// accounts only, MaxWithdrawalRatio to savings accounts only (zero disables it).
type Policy struct {
	Kind               Kind
	OverdraftLimit     decimal.Decimal
	MaxWithdrawalRatio decimal.Decimal
}

func (p Policy) validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPolicy, p.Kind)
	}
	if p.OverdraftLimit.IsNegative() {
		return fmt.Errorf("%w: overdraft limit %s is negative", ErrInvalidPolicy, p.OverdraftLimit)
	}
	if !p.OverdraftLimit.IsZero() && p.Kind != KindChecking {
		return fmt.Errorf("%w: overdraft is only allowed on checking accounts", ErrInvalidPolicy)
	}
	if p.MaxWithdrawalRatio.IsNegative() || p.MaxWithdrawalRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: withdrawal ratio %s is outside [0, 1]", ErrInvalidPolicy, p.MaxWithdrawalRatio)
	}
	if !p.MaxWithdrawalRatio.IsZero() && p.Kind != KindSavings {
		return fmt.Errorf("%w: withdrawal ratio is only allowed on savings accounts", ErrInvalidPolicy)
	}
	return nil
}

// Floor is the lowest balance the policy permits.
func (p Policy) Floor() decimal.Decimal {
	if p.Kind == KindChecking {
		return p.OverdraftLimit.Neg()
	}
	return decimal.Zero
}

func (p Policy) allowDebit(balance, amount decimal.Decimal) error {
	if p.Kind == KindSavings && p.MaxWithdrawalRatio.IsPositive() {
		limit := balance.Mul(p.MaxWithdrawalRatio)
		if amount.GreaterThan(limit) {
			return fmt.Errorf("%w: at most %s may be withdrawn at once",
				ErrInsufficientFunds, limit.StringFixedBank(2))
		}
	}
	if balance.Sub(amount).LessThan(p.Floor()) {
		return fmt.Errorf("%w: balance %s, requested %s, floor %s",
			ErrInsufficientFunds, balance, amount, p.Floor())
	}
	return nil
}
