package models

import (
	"github.com/Nzyazin/bank/internal/core/account"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationType определяет тип операции, запрошенной клиентом
type OperationType string

const (
	// OperationDeposit - пополнение счета
	OperationDeposit OperationType = "DEPOSIT"
	// OperationWithdraw - снятие средств со счета
	OperationWithdraw OperationType = "WITHDRAW"
)

// AccountOperation представляет запрос на пополнение или снятие
type AccountOperation struct {
	AccountID     uuid.UUID       `json:"accountId"`
	OperationType OperationType   `json:"operationType"`
	Amount        string          `json:"amount"`
	DecimalAmount decimal.Decimal `json:"-"`
}

// OpenAccountRequest представляет запрос на открытие счета.
// Пустой OverdraftLimit означает лимит из конфигурации.
type OpenAccountRequest struct {
	Kind           account.Kind `json:"kind"`
	Holder         string       `json:"holder"`
	Number         string       `json:"number"`
	OpeningBalance string       `json:"openingBalance"`
	OverdraftLimit string       `json:"overdraftLimit"`

	DecimalOpening   decimal.Decimal  `json:"-"`
	DecimalOverdraft *decimal.Decimal `json:"-"`
}

// TransferRequest представляет перевод между двумя счетами
type TransferRequest struct {
	FromAccountID uuid.UUID       `json:"fromAccountId"`
	ToAccountID   uuid.UUID       `json:"toAccountId"`
	Amount        string          `json:"amount"`
	DecimalAmount decimal.Decimal `json:"-"`
}

type TransferResult struct {
	Out         account.Operation
	In          account.Operation
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

type InterestRequest struct {
	Rate string `json:"rate"`
}

type InterestResult struct {
	Applied   bool
	Operation account.Operation
	Balance   decimal.Decimal
}
