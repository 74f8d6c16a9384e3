package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a balance movement.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// TransactionSource identifies what caused a balance movement.
type TransactionSource string

const (
	TransactionSourceOrder  TransactionSource = "order"
	TransactionSourceRefund TransactionSource = "refund"
	TransactionSourceManual TransactionSource = "manual"
	TransactionSourceBot    TransactionSource = "bot"
)

// Transaction is an append-only audit row. Amount is always positive.
type Transaction struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Amount    decimal.Decimal   `json:"amount"`
	Type      TransactionType   `json:"type"`
	Source    TransactionSource `json:"source"`
	Reference string            `json:"reference"`
	CreatedAt time.Time         `json:"created_at"`
}

// BalanceDrift is a user whose stored balance disagrees with the transaction log.
type BalanceDrift struct {
	UserID   string          `json:"user_id"`
	Balance  decimal.Decimal `json:"balance"`
	Computed decimal.Decimal `json:"computed"`
}
