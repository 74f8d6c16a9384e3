package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Metadata holds service-specific order fields. It is stored verbatim and may
// contain credentials; anything leaving the ledger must be redacted first.
type Metadata map[string]any

// Order is a purchase debited from a user's balance at creation.
// Invariant: FinalPrice == OriginalPrice - Discount, all non-negative.
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	ServiceType   string          `json:"service_type"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Discount      decimal.Decimal `json:"discount"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	Status        OrderStatus     `json:"status"`
	Meta          Metadata        `json:"meta,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// StatusChangeResult is returned by status transitions; refund fields are set
// only when the transition into cancelled credited the user.
type StatusChangeResult struct {
	Order         *Order           `json:"order"`
	RefundApplied bool             `json:"refund_applied"`
	NewBalance    *decimal.Decimal `json:"new_balance"`
}
