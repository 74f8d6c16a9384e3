package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RechargeMethod is a payment rail for top-ups.
type RechargeMethod string

const (
	RechargeMethodYape     RechargeMethod = "YAPE"
	RechargeMethodEfectivo RechargeMethod = "EFECTIVO"
	RechargeMethodUSDT     RechargeMethod = "USDT"
)

// IntentStatus is the lifecycle state of a recharge intent.
// created -> verified | expired; both are terminal.
type IntentStatus string

const (
	IntentStatusCreated  IntentStatus = "created"
	IntentStatusVerified IntentStatus = "verified"
	IntentStatusExpired  IntentStatus = "expired"
)

// RechargeIntent is a user-declared top-up awaiting external verification.
type RechargeIntent struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	TokenSaldo string          `json:"token_saldo"`
	Method     RechargeMethod  `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	Status     IntentStatus    `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// VerifiedIntent is the snapshot returned once to the verifying actor.
type VerifiedIntent struct {
	IntentID   string          `json:"intent_id"`
	Method     RechargeMethod  `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	TokenSaldo string          `json:"token_saldo"`
}
