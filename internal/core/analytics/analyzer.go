// Package analytics builds read-only reports over account ledgers. Nothing
// here can mutate an account: every function works on a Snapshot.
package analytics

import (
	"errors"
	"slices"
	"time"

	"github.com/Nzyazin/bank/internal/core/account"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSortKey = errors.New("sort_by must be 'amount' or 'date'")
	ErrNoData         = errors.New("no operations to chart")
)

// Source is anything that can produce a consistent account snapshot.
type Source interface {
	Snapshot() account.Snapshot
}

type SortKey string

const (
	SortByAmount SortKey = "amount"
	SortByDate   SortKey = "date"
)

type KindStats struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type Summary struct {
	Count   int                                 `json:"count"`
	Credits decimal.Decimal                     `json:"credits"`
	Debits  decimal.Decimal                     `json:"debits"`
	Net     decimal.Decimal                     `json:"net"`
	Balance decimal.Decimal                     `json:"balance"`
	ByKind  map[account.OperationKind]KindStats `json:"by_kind"`
	FirstAt *time.Time                          `json:"first_at,omitempty"`
	LastAt  *time.Time                          `json:"last_at,omitempty"`
}

type TransactionAnalyzer struct{}

func NewTransactionAnalyzer() *TransactionAnalyzer {
	return &TransactionAnalyzer{}
}

// Top returns at most n operations: the largest first (newest first on equal
// amounts) for SortByAmount, the newest first for SortByDate.
func (TransactionAnalyzer) Top(src Source, n int, sortBy SortKey) ([]account.Operation, error) {
	var cmp func(a, b account.Operation) int
	switch sortBy {
	case SortByAmount:
		cmp = func(a, b account.Operation) int {
			if c := b.Amount.Cmp(a.Amount); c != 0 {
				return c
			}
			return b.Timestamp.Compare(a.Timestamp)
		}
	case SortByDate:
		cmp = func(a, b account.Operation) int {
			return b.Timestamp.Compare(a.Timestamp)
		}
	default:
		return nil, ErrInvalidSortKey
	}
	if n <= 0 {
		return []account.Operation{}, nil
	}

	ops := src.Snapshot().History().Slice()
	slices.SortStableFunc(ops, cmp)
	if len(ops) > n {
		ops = ops[:n]
	}
	return ops, nil
}

func (TransactionAnalyzer) Summarize(src Source) Summary {
	snap := src.Snapshot()
	s := Summary{
		Credits: decimal.Zero,
		Debits:  decimal.Zero,
		Balance: snap.Balance(),
		ByKind:  make(map[account.OperationKind]KindStats),
	}
	for op := range snap.History().Entries() {
		ts := op.Timestamp
		if s.Count == 0 {
			s.FirstAt = &ts
		}
		s.Count++
		s.LastAt = &ts

		ks := s.ByKind[op.Kind]
		ks.Count++
		ks.Total = ks.Total.Add(op.Amount)
		s.ByKind[op.Kind] = ks

		if op.Kind.IsCredit() {
			s.Credits = s.Credits.Add(op.Amount)
		} else {
			s.Debits = s.Debits.Add(op.Amount)
		}
	}
	s.Net = s.Credits.Sub(s.Debits)
	return s
}

// WindowSum adds up amounts with from <= timestamp < to. With no kinds given
// every operation counts.
func (TransactionAnalyzer) WindowSum(src Source, from, to time.Time, kinds ...account.OperationKind) decimal.Decimal {
	sum := decimal.Zero
	inWindow := func(op account.Operation) bool {
		if op.Timestamp.Before(from) || !op.Timestamp.Before(to) {
			return false
		}
		return len(kinds) == 0 || slices.Contains(kinds, op.Kind)
	}
	for op := range src.Snapshot().History().Filter(inWindow) {
		sum = sum.Add(op.Amount)
	}
	return sum
}
