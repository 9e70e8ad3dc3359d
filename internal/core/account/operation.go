package account

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationKind определяет тип записи в истории счета
type OperationKind string

const (
	OperationDeposit     OperationKind = "deposit"
	OperationWithdrawal  OperationKind = "withdrawal"
	OperationTransferIn  OperationKind = "transfer-in"
	OperationTransferOut OperationKind = "transfer-out"
	OperationInterest    OperationKind = "interest"
)

// IsCredit reports whether the kind increases the balance.
func (k OperationKind) IsCredit() bool {
	switch k {
	case OperationDeposit, OperationTransferIn, OperationInterest:
		return true
	default:
		return false
	}
}

func (k OperationKind) Valid() bool {
	switch k {
	case OperationDeposit, OperationWithdrawal, OperationTransferIn, OperationTransferOut, OperationInterest:
		return true
	default:
		return false
	}
}

// Operation is one recorded mutation of an account. Values are never changed
// after they have been appended to a history.
type Operation struct {
	ID               uuid.UUID       `json:"id"`
	Seq              int             `json:"seq"`
	Kind             OperationKind   `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	Timestamp        time.Time       `json:"timestamp"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	CorrelationID    uuid.UUID       `json:"correlation_id"`
	Counterparty     uuid.UUID       `json:"counterparty"`
}

// MarshalJSON omits the transfer fields on operations that are not transfer legs.
func (o Operation) MarshalJSON() ([]byte, error) {
	type plain Operation
	out := struct {
		plain
		CorrelationID *uuid.UUID `json:"correlation_id,omitempty"`
		Counterparty  *uuid.UUID `json:"counterparty,omitempty"`
	}{plain: plain(o)}
	if o.CorrelationID != uuid.Nil {
		out.CorrelationID = &o.CorrelationID
	}
	if o.Counterparty != uuid.Nil {
		out.Counterparty = &o.Counterparty
	}
	return json.Marshal(out)
}

// Signed returns the amount with the sign it contributes to the balance.
func (o Operation) Signed() decimal.Decimal {
	if o.Kind.IsCredit() {
		return o.Amount
	}
	return o.Amount.Neg()
}
