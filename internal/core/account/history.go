package account

import (
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationHistory is the append-only ledger of one account.
//
// Only the owning Account appends to it. Values returned by Account.History
// share the backing array but are capped to the length at the time of the
// call, so they stay stable while the account keeps growing.
type OperationHistory struct {
	ops []Operation
}

// append stamps op with its position and a timestamp strictly after the
// previous entry, then stores it.
func (h *OperationHistory) append(op Operation, now time.Time) Operation {
	if n := len(h.ops); n > 0 {
		if last := h.ops[n-1].Timestamp; !now.After(last) {
			now = last.Add(time.Nanosecond)
		}
	}
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	op.Seq = len(h.ops) + 1
	op.Timestamp = now
	h.ops = append(h.ops, op)
	return op
}

// view returns a capped copy of the slice header.
func (h *OperationHistory) view() OperationHistory {
	n := len(h.ops)
	return OperationHistory{ops: h.ops[:n:n]}
}

// Entries yields operations in the order they were appended.
func (h OperationHistory) Entries() iter.Seq[Operation] {
	return func(yield func(Operation) bool) {
		for _, op := range h.ops {
			if !yield(op) {
				return
			}
		}
	}
}

// Filter yields the operations matching pred, preserving order.
func (h OperationHistory) Filter(pred func(Operation) bool) iter.Seq[Operation] {
	return func(yield func(Operation) bool) {
		for _, op := range h.ops {
			if pred(op) && !yield(op) {
				return
			}
		}
	}
}

func (h OperationHistory) Len() int {
	return len(h.ops)
}

func (h OperationHistory) Last() (Operation, bool) {
	if len(h.ops) == 0 {
		return Operation{}, false
	}
	return h.ops[len(h.ops)-1], true
}

// Slice returns a copy of all entries.
func (h OperationHistory) Slice() []Operation {
	out := make([]Operation, len(h.ops))
	copy(out, h.ops)
	return out
}

// Verify replays the ledger from a zero balance and checks that every entry
// carries the balance produced by the entries before it.
func (h OperationHistory) Verify() error {
	balance := decimal.Zero
	for i, op := range h.ops {
		if !op.Amount.IsPositive() {
			return fmt.Errorf("%w: entry %d has non-positive amount %s", ErrBrokenChain, i+1, op.Amount)
		}
		balance = balance.Add(op.Signed())
		if !balance.Equal(op.ResultingBalance) {
			return fmt.Errorf("%w: entry %d expected balance %s, recorded %s",
				ErrBrokenChain, i+1, balance, op.ResultingBalance)
		}
		if i > 0 && !op.Timestamp.After(h.ops[i-1].Timestamp) {
			return fmt.Errorf("%w: entry %d is not after entry %d", ErrBrokenChain, i+1, i)
		}
	}
	return nil
}
