package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the authorization role of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account is a user with a prepaid balance.
// Balance is mutated only under the account's row lock.
type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone,omitempty"`
	PasswordHash string          `json:"-"`
	Role         Role            `json:"role"`
	TokenSaldo   string          `json:"token_saldo"` // account token for bot-driven credit; not a credential
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
