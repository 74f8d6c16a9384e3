package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/platform/database"
)

// Every method takes a database.Querier so the caller decides whether it runs
// on the pool or inside a transaction.

// AccountRepository owns the users table.
type AccountRepository interface {
	Create(ctx context.Context, q database.Querier, account *domain.Account) error
	GetByID(ctx context.Context, q database.Querier, id string) (*domain.Account, error)
	GetByAccountToken(ctx context.Context, q database.Querier, token string) (*domain.Account, error)
	GetByEmail(ctx context.Context, q database.Querier, email string) (*domain.Account, error)
	// LockForUpdate must run inside a transaction; the lock is held until it ends.
	LockForUpdate(ctx context.Context, q database.Querier, id string) (*domain.Account, error)
	LockByAccountTokenForUpdate(ctx context.Context, q database.Querier, token string) (*domain.Account, error)
	// AdjustBalance applies delta and returns the new balance. Callers hold the
	// row lock and have already checked the result is non-negative.
	AdjustBalance(ctx context.Context, q database.Querier, id string, delta decimal.Decimal) (decimal.Decimal, error)
	List(ctx context.Context, q database.Querier, limit, offset int) ([]domain.Account, error)
}

// OrderRepository owns the orders table.
type OrderRepository interface {
	Create(ctx context.Context, q database.Querier, order *domain.Order) error
	GetByID(ctx context.Context, q database.Querier, id string) (*domain.Order, error)
	LockForUpdate(ctx context.Context, q database.Querier, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, q database.Querier, id string, status domain.OrderStatus) (*domain.Order, error)
	ListByUser(ctx context.Context, q database.Querier, userID string, limit, offset int) ([]domain.Order, error)
	ListAll(ctx context.Context, q database.Querier, limit, offset int) ([]domain.Order, error)
}

// TransactionRepository owns the append-only transactions table.
type TransactionRepository interface {
	Create(ctx context.Context, q database.Querier, txn *domain.Transaction) error
	HasRefund(ctx context.Context, q database.Querier, userID, orderID string) (bool, error)
	// CreateRefund inserts a credit/refund row unless one already exists for the
	// same user and reference. It reports whether a row was inserted.
	CreateRefund(ctx context.Context, q database.Querier, txn *domain.Transaction) (bool, error)
	ListByUser(ctx context.Context, q database.Querier, userID string, limit, offset int) ([]domain.Transaction, error)
	FindBalanceDrift(ctx context.Context, q database.Querier) ([]domain.BalanceDrift, error)
}

// CatalogRepository owns the service catalog.
type CatalogRepository interface {
	GetByKey(ctx context.Context, q database.Querier, key string) (*domain.CatalogEntry, error)
	GetActiveByKey(ctx context.Context, q database.Querier, key string) (*domain.CatalogEntry, error)
	List(ctx context.Context, q database.Querier, activeOnly bool) ([]domain.CatalogEntry, error)
	Create(ctx context.Context, q database.Querier, entry *domain.CatalogEntry) error
	Update(ctx context.Context, q database.Querier, entry *domain.CatalogEntry) error
	Delete(ctx context.Context, q database.Querier, key string) error
}

// SettingsRepository owns the global pricing settings.
type SettingsRepository interface {
	GetAll(ctx context.Context, q database.Querier) (domain.PricingSettings, error)
	Upsert(ctx context.Context, q database.Querier, key string, value decimal.Decimal) error
	InsertIfAbsent(ctx context.Context, q database.Querier, key string, value decimal.Decimal) (bool, error)
}

// RechargeIntentRepository owns recharge intents.
type RechargeIntentRepository interface {
	Create(ctx context.Context, q database.Querier, intent *domain.RechargeIntent) error
	LockForUpdate(ctx context.Context, q database.Querier, id string) (*domain.RechargeIntent, error)
	UpdateStatus(ctx context.Context, q database.Querier, id string, status domain.IntentStatus) error
}
