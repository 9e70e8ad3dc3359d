// Package account holds the account model and its operation ledger.
//
// Every mutation validates first and then updates the balance and appends to
// the history under the account's lock, so a failed call changes nothing and
// records nothing.
package account

import (
	"bytes"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	holderRegexp = regexp.MustCompile(`^[A-ZА-ЯЁ][a-zа-яё]+ [A-ZА-ЯЁ][a-zа-яё]+$`)
	numberRegexp = regexp.MustCompile(`^ACC-\d+$`)

	numberSeq atomic.Int64
)

func init() {
	numberSeq.Store(999)
}

// NextNumber returns a fresh generated account number.
func NextNumber() string {
	return fmt.Sprintf("ACC-%d", numberSeq.Add(1))
}

// Params describes a new account. Zero ID and empty Number are generated.
type Params struct {
	ID      uuid.UUID
	Number  string
	Holder  string
	Opening decimal.Decimal
	Policy  Policy
	Clock   func() time.Time
}

type Account struct {
	mu sync.RWMutex

	id        uuid.UUID
	number    string
	holder    string
	policy    Policy
	clock     func() time.Time
	createdAt time.Time

	balance decimal.Decimal
	history OperationHistory
}

// Info is the descriptive part of an account.
type Info struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"number"`
	Holder         string          `json:"holder,omitempty"`
	Kind           Kind            `json:"kind"`
	Balance        decimal.Decimal `json:"balance"`
	OverdraftLimit decimal.Decimal `json:"overdraft_limit"`
	CreatedAt      time.Time       `json:"created_at"`
}

func New(p Params) (*Account, error) {
	if err := p.Policy.validate(); err != nil {
		return nil, err
	}
	if p.Holder != "" && !holderRegexp.MatchString(p.Holder) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHolder, p.Holder)
	}
	if p.Number == "" {
		p.Number = NextNumber()
	} else if !numberRegexp.MatchString(p.Number) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccountNumber, p.Number)
	}
	if p.Opening.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance %s", ErrInvalidAmount, p.Opening)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}

	a := &Account{
		id:      p.ID,
		number:  p.Number,
		holder:  p.Holder,
		policy:  p.Policy,
		clock:   p.Clock,
		balance: decimal.Zero,
	}
	a.createdAt = a.clock()
	if p.Opening.IsPositive() {
		a.apply(OperationDeposit, p.Opening, uuid.Nil, uuid.Nil)
	}
	return a, nil
}

func NewBasic(holder string, opening decimal.Decimal) (*Account, error) {
	return New(Params{Holder: holder, Opening: opening, Policy: Policy{Kind: KindBasic}})
}

func NewChecking(holder string, opening, overdraftLimit decimal.Decimal) (*Account, error) {
	return New(Params{
		Holder:  holder,
		Opening: opening,
		Policy:  Policy{Kind: KindChecking, OverdraftLimit: overdraftLimit},
	})
}

func NewSavings(holder string, opening decimal.Decimal) (*Account, error) {
	return New(Params{Holder: holder, Opening: opening, Policy: Policy{Kind: KindSavings}})
}

func (a *Account) ID() uuid.UUID  { return a.id }
func (a *Account) Number() string { return a.number }
func (a *Account) Holder() string { return a.holder }
func (a *Account) Kind() Kind     { return a.policy.Kind }
func (a *Account) Policy() Policy { return a.policy }

func (a *Account) Balance() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balance
}

// History returns a read-only view of the ledger as of this call.
func (a *Account) History() OperationHistory {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.history.view()
}

func (a *Account) Info() Info {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.info()
}

func (a *Account) info() Info {
	return Info{
		ID:             a.id,
		Number:         a.number,
		Holder:         a.holder,
		Kind:           a.policy.Kind,
		Balance:        a.balance,
		OverdraftLimit: a.policy.OverdraftLimit,
		CreatedAt:      a.createdAt,
	}
}

// Snapshot captures balance and history under a single read lock.
func (a *Account) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{info: a.info(), history: a.history.view()}
}

func (a *Account) Deposit(amount decimal.Decimal) (Operation, error) {
	if !amount.IsPositive() {
		return Operation{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apply(OperationDeposit, amount, uuid.Nil, uuid.Nil), nil
}

func (a *Account) Withdraw(amount decimal.Decimal) (Operation, error) {
	if !amount.IsPositive() {
		return Operation{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.policy.allowDebit(a.balance, amount); err != nil {
		return Operation{}, err
	}
	return a.apply(OperationWithdrawal, amount, uuid.Nil, uuid.Nil), nil
}

// Transfer moves amount from a to target. Both accounts are locked in
// ascending ID order for the whole call; on error neither is touched.
func (a *Account) Transfer(target *Account, amount decimal.Decimal) (out, in Operation, err error) {
	if !amount.IsPositive() {
		return out, in, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if target == nil {
		return out, in, fmt.Errorf("%w: no target account", ErrInvalidTransferTarget)
	}
	if target == a || target.id == a.id {
		return out, in, fmt.Errorf("%w: cannot transfer to the same account", ErrInvalidTransferTarget)
	}

	first, second := a, target
	if bytes.Compare(target.id[:], a.id[:]) < 0 {
		first, second = target, a
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if err := a.policy.allowDebit(a.balance, amount); err != nil {
		return out, in, err
	}

	correlation := uuid.New()
	out = a.apply(OperationTransferOut, amount, correlation, target.id)
	in = target.apply(OperationTransferIn, amount, correlation, a.id)
	return out, in, nil
}

// AccrueInterest credits balance*rate, rounded to cents. Reports false and
// records nothing when the resulting amount is not positive.
func (a *Account) AccrueInterest(rate decimal.Decimal) (Operation, bool, error) {
	if a.policy.Kind != KindSavings {
		return Operation{}, false, ErrInterestNotSupported
	}
	if rate.IsNegative() {
		return Operation{}, false, fmt.Errorf("%w: %s", ErrInvalidRate, rate)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	amount := a.balance.Mul(rate).RoundBank(2)
	if !amount.IsPositive() {
		return Operation{}, false, nil
	}
	return a.apply(OperationInterest, amount, uuid.Nil, uuid.Nil), true, nil
}

// apply must be called with a.mu held for writing and after validation.
func (a *Account) apply(kind OperationKind, amount decimal.Decimal, correlation, counterparty uuid.UUID) Operation {
	op := Operation{
		Kind:          kind,
		Amount:        amount,
		CorrelationID: correlation,
		Counterparty:  counterparty,
	}
	if kind.IsCredit() {
		a.balance = a.balance.Add(amount)
	} else {
		a.balance = a.balance.Sub(amount)
	}
	op.ResultingBalance = a.balance
	return a.history.append(op, a.clock())
}

// Snapshot is an immutable, consistent copy of an account's state.
type Snapshot struct {
	info    Info
	history OperationHistory
}

func (s Snapshot) Balance() decimal.Decimal  { return s.info.Balance }
func (s Snapshot) History() OperationHistory { return s.history }
func (s Snapshot) Info() Info                { return s.info }
func (s Snapshot) Snapshot() Snapshot        { return s }
