package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/platform/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// decEq matches a decimal argument by value rather than representation.
func decEq(s string) any {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, q database.Querier, a *domain.Account) error {
	args := m.Called(ctx, q, a)
	return args.Error(0)
}

func (m *MockAccountRepository) accountResult(args mock.Arguments) (*domain.Account, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, q database.Querier, id string) (*domain.Account, error) {
	return m.accountResult(m.Called(ctx, q, id))
}

func (m *MockAccountRepository) GetByAccountToken(ctx context.Context, q database.Querier, token string) (*domain.Account, error) {
	return m.accountResult(m.Called(ctx, q, token))
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, q database.Querier, email string) (*domain.Account, error) {
	return m.accountResult(m.Called(ctx, q, email))
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, q database.Querier, id string) (*domain.Account, error) {
	return m.accountResult(m.Called(ctx, q, id))
}

func (m *MockAccountRepository) LockByAccountTokenForUpdate(ctx context.Context, q database.Querier, token string) (*domain.Account, error) {
	return m.accountResult(m.Called(ctx, q, token))
}

func (m *MockAccountRepository) AdjustBalance(ctx context.Context, q database.Querier, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, q, id, delta)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) List(ctx context.Context, q database.Querier, limit, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, q, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

// --- Mock OrderRepository ---
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) orderResult(args mock.Arguments) (*domain.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, q database.Querier, o *domain.Order) error {
	args := m.Called(ctx, q, o)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, q database.Querier, id string) (*domain.Order, error) {
	return m.orderResult(m.Called(ctx, q, id))
}

func (m *MockOrderRepository) LockForUpdate(ctx context.Context, q database.Querier, id string) (*domain.Order, error) {
	return m.orderResult(m.Called(ctx, q, id))
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, q database.Querier, id string, status domain.OrderStatus) (*domain.Order, error) {
	return m.orderResult(m.Called(ctx, q, id, status))
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, q database.Querier, userID string, limit, offset int) ([]domain.Order, error) {
	args := m.Called(ctx, q, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListAll(ctx context.Context, q database.Querier, limit, offset int) ([]domain.Order, error) {
	args := m.Called(ctx, q, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, q database.Querier, t *domain.Transaction) error {
	args := m.Called(ctx, q, t)
	return args.Error(0)
}

func (m *MockTransactionRepository) HasRefund(ctx context.Context, q database.Querier, userID, orderID string) (bool, error) {
	args := m.Called(ctx, q, userID, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) CreateRefund(ctx context.Context, q database.Querier, t *domain.Transaction) (bool, error) {
	args := m.Called(ctx, q, t)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, q database.Querier, userID string, limit, offset int) ([]domain.Transaction, error) {
	args := m.Called(ctx, q, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindBalanceDrift(ctx context.Context, q database.Querier) ([]domain.BalanceDrift, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BalanceDrift), args.Error(1)
}

// --- Mock CatalogRepository ---
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) entryResult(args mock.Arguments) (*domain.CatalogEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CatalogEntry), args.Error(1)
}

func (m *MockCatalogRepository) GetByKey(ctx context.Context, q database.Querier, key string) (*domain.CatalogEntry, error) {
	return m.entryResult(m.Called(ctx, q, key))
}

func (m *MockCatalogRepository) GetActiveByKey(ctx context.Context, q database.Querier, key string) (*domain.CatalogEntry, error) {
	return m.entryResult(m.Called(ctx, q, key))
}

func (m *MockCatalogRepository) List(ctx context.Context, q database.Querier, activeOnly bool) ([]domain.CatalogEntry, error) {
	args := m.Called(ctx, q, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CatalogEntry), args.Error(1)
}

func (m *MockCatalogRepository) Create(ctx context.Context, q database.Querier, e *domain.CatalogEntry) error {
	return m.Called(ctx, q, e).Error(0)
}

func (m *MockCatalogRepository) Update(ctx context.Context, q database.Querier, e *domain.CatalogEntry) error {
	return m.Called(ctx, q, e).Error(0)
}

func (m *MockCatalogRepository) Delete(ctx context.Context, q database.Querier, key string) error {
	return m.Called(ctx, q, key).Error(0)
}

// --- Mock SettingsRepository ---
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) GetAll(ctx context.Context, q database.Querier) (domain.PricingSettings, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.PricingSettings), args.Error(1)
}

func (m *MockSettingsRepository) Upsert(ctx context.Context, q database.Querier, key string, value decimal.Decimal) error {
	return m.Called(ctx, q, key, value).Error(0)
}

func (m *MockSettingsRepository) InsertIfAbsent(ctx context.Context, q database.Querier, key string, value decimal.Decimal) (bool, error) {
	args := m.Called(ctx, q, key, value)
	return args.Bool(0), args.Error(1)
}

// --- Mock RechargeIntentRepository ---
type MockRechargeIntentRepository struct {
	mock.Mock
}

func (m *MockRechargeIntentRepository) Create(ctx context.Context, q database.Querier, in *domain.RechargeIntent) error {
	return m.Called(ctx, q, in).Error(0)
}

func (m *MockRechargeIntentRepository) LockForUpdate(ctx context.Context, q database.Querier, id string) (*domain.RechargeIntent, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RechargeIntent), args.Error(1)
}

func (m *MockRechargeIntentRepository) UpdateStatus(ctx context.Context, q database.Querier, id string, status domain.IntentStatus) error {
	return m.Called(ctx, q, id, status).Error(0)
}

// --- Mock collaborators ---
type MockPriceResolver struct {
	mock.Mock
}

func (m *MockPriceResolver) ResolvePrice(ctx context.Context, key string, raw decimal.Decimal) (Quote, error) {
	args := m.Called(ctx, key, raw)
	return args.Get(0).(Quote), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(event domain.Event) {
	m.Called(event)
}

type MockCatalogReader struct {
	mock.Mock
}

func (m *MockCatalogReader) GetActive(ctx context.Context, key string) (*domain.CatalogEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CatalogEntry), args.Error(1)
}

type MockSettingsReader struct {
	mock.Mock
}

func (m *MockSettingsReader) Settings(ctx context.Context) (domain.PricingSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.PricingSettings), args.Error(1)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
