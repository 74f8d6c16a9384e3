package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind distinguishes outbound notifications.
type EventKind string

const (
	EventOrderCreated      EventKind = "order.created"
	EventRechargeRequested EventKind = "recharge.requested"
)

// Event is handed to the notifier after the ledger commits.
type Event interface {
	Kind() EventKind
}

// OrderCreatedEvent carries the raw order metadata; the notifier redacts it.
type OrderCreatedEvent struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	UserName    string          `json:"user_name"`
	UserEmail   string          `json:"user_email"`
	UserPhone   string          `json:"user_phone,omitempty"`
	TokenSaldo  string          `json:"token_saldo"`
	ServiceType string          `json:"service_type"`
	FinalPrice  decimal.Decimal `json:"final_price"`
	Status      OrderStatus     `json:"status"`
	Meta        Metadata        `json:"meta,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (OrderCreatedEvent) Kind() EventKind { return EventOrderCreated }

// RechargeRequestedEvent announces a new recharge intent.
type RechargeRequestedEvent struct {
	IntentID   string          `json:"intent_id"`
	UserID     string          `json:"user_id"`
	TokenSaldo string          `json:"token_saldo"`
	Method     RechargeMethod  `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (RechargeRequestedEvent) Kind() EventKind { return EventRechargeRequested }
