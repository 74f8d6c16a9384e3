package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/ledger_service/repository"
	"github.com/servis30/golang_services/internal/platform/database"
	"github.com/servis30/golang_services/internal/platform/money"
)

const (
	defaultCreditSource    = domain.TransactionSourceBot
	defaultCreditReference = "recarga"
	adminCreditReference   = "admin"
)

// PriceResolver computes order prices.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, key string, raw decimal.Decimal) (Quote, error)
}

// EventPublisher hands events to the notifier. It must not block.
type EventPublisher interface {
	Publish(event domain.Event)
}

// CreateOrderCommand is the input to CreateOrder.
type CreateOrderCommand struct {
	UserID     string
	ServiceKey string
	RawPrice   decimal.Decimal
	Metadata   domain.Metadata
}

// CreditResult is the outcome of a balance credit.
type CreditResult struct {
	UserID     string          `json:"user_id"`
	NewBalance decimal.Decimal `json:"balance"`
}

// LedgerService keeps balances, orders and transactions consistent. Every
// balance mutation happens under the user's row lock inside one transaction.
type LedgerService struct {
	db        database.DB
	accounts  repository.AccountRepository
	orders    repository.OrderRepository
	txns      repository.TransactionRepository
	pricing   PriceResolver
	publisher EventPublisher
	logger    *slog.Logger
}

func NewLedgerService(
	db database.DB,
	accounts repository.AccountRepository,
	orders repository.OrderRepository,
	txns repository.TransactionRepository,
	pricing PriceResolver,
	publisher EventPublisher,
	logger *slog.Logger,
) *LedgerService {
	return &LedgerService{
		db:        db,
		accounts:  accounts,
		orders:    orders,
		txns:      txns,
		pricing:   pricing,
		publisher: publisher,
		logger:    logger.With("service", "ledger"),
	}
}

func observe(op string, start time.Time) {
	ledgerOpDurationHist.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// CreateOrder prices the order, then debits the user and records the order in
// one transaction. The notifier is informed only after commit.
func (s *LedgerService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	defer observe("create_order", time.Now())

	order, account, quote, err := s.createOrder(ctx, cmd)
	if err != nil {
		err = asDomainError(err)
		orderFailuresCounter.WithLabelValues(failureReason(err)).Inc()
		s.logger.InfoContext(ctx, "Order rejected", "user_id", cmd.UserID, "service", cmd.ServiceKey, "error", err)
		return nil, err
	}

	ordersCreatedCounter.WithLabelValues(order.ServiceType, string(quote.Strategy)).Inc()
	s.logger.InfoContext(ctx, "Order created",
		"order_id", order.ID,
		"user_id", order.UserID,
		"service", order.ServiceType,
		"strategy", quote.Strategy,
		"final_price", order.FinalPrice.StringFixed(2),
		"balance", account.Balance.StringFixed(2),
		"meta_keys", len(order.Meta),
	)

	s.publisher.Publish(domain.OrderCreatedEvent{
		OrderID:     order.ID,
		UserID:      account.ID,
		UserName:    account.Name,
		UserEmail:   account.Email,
		UserPhone:   account.Phone,
		TokenSaldo:  account.TokenSaldo,
		ServiceType: order.ServiceType,
		FinalPrice:  order.FinalPrice,
		Status:      order.Status,
		Meta:        order.Meta,
		CreatedAt:   order.CreatedAt,
	})
	return order, nil
}

func (s *LedgerService) createOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, *domain.Account, Quote, error) {
	if strings.TrimSpace(cmd.UserID) == "" || strings.TrimSpace(cmd.ServiceKey) == "" {
		return nil, nil, Quote{}, fmt.Errorf("%w: user and service are required", domain.ErrValidation)
	}

	quote, err := s.pricing.ResolvePrice(ctx, cmd.ServiceKey, cmd.RawPrice)
	if err != nil {
		return nil, nil, Quote{}, err
	}
	if err := validateMetadata(quote.RequiredFields, cmd.Metadata); err != nil {
		return nil, nil, Quote{}, err
	}

	var order *domain.Order
	var account *domain.Account
	err = database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		acc, err := s.accounts.LockForUpdate(ctx, tx, cmd.UserID)
		if err != nil {
			return err
		}
		if acc.Balance.LessThan(quote.Final) {
			return domain.ErrInsufficientFunds
		}

		o := &domain.Order{
			UserID:        acc.ID,
			ServiceType:   cmd.ServiceKey,
			OriginalPrice: quote.Original,
			Discount:      quote.Discount,
			FinalPrice:    quote.Final,
			Status:        domain.OrderStatusPending,
			Meta:          cmd.Metadata,
		}
		if err := s.orders.Create(ctx, tx, o); err != nil {
			return err
		}

		// Free orders leave no debit row; transaction amounts are strictly positive.
		if quote.Final.IsPositive() {
			balance, err := s.accounts.AdjustBalance(ctx, tx, acc.ID, quote.Final.Neg())
			if err != nil {
				return err
			}
			acc.Balance = balance
			err = s.txns.Create(ctx, tx, &domain.Transaction{
				UserID:    acc.ID,
				Amount:    quote.Final,
				Type:      domain.TransactionTypeDebit,
				Source:    domain.TransactionSourceOrder,
				Reference: o.ID,
			})
			if err != nil {
				return err
			}
		}

		order, account = o, acc
		return nil
	})
	if err != nil {
		return nil, nil, Quote{}, err
	}
	return order, account, quote, nil
}

// validateMetadata checks that every required field of the service is present and non-empty.
func validateMetadata(fields []domain.RequiredField, meta domain.Metadata) error {
	var missing []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		v, ok := meta[f.Key]
		if !ok || v == nil || strings.TrimSpace(fmt.Sprint(v)) == "" {
			missing = append(missing, f.Key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// SetOrderStatus moves an order to status under the order's row lock. The
// transition into cancelled refunds the final price at most once per order.
func (s *LedgerService) SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.StatusChangeResult, error) {
	defer observe("set_order_status", time.Now())

	if !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	result := &domain.StatusChangeResult{}
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		current, err := s.orders.LockForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if current.Status == status {
			result.Order = current
			return nil
		}
		if current.Status == domain.OrderStatusCancelled {
			return fmt.Errorf("%w: order %s is already cancelled", domain.ErrInvalidStatus, orderID)
		}

		updated, err := s.orders.UpdateStatus(ctx, tx, orderID, status)
		if err != nil {
			return err
		}
		result.Order = updated
		if status != domain.OrderStatusCancelled {
			return nil
		}
		return s.refund(ctx, tx, current, result)
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	s.logger.InfoContext(ctx, "Order status changed",
		"order_id", orderID,
		"status", result.Order.Status,
		"refund_applied", result.RefundApplied,
	)
	return result, nil
}

func (s *LedgerService) refund(ctx context.Context, tx pgx.Tx, order *domain.Order, result *domain.StatusChangeResult) error {
	if !order.FinalPrice.IsPositive() {
		return nil
	}
	already, err := s.txns.HasRefund(ctx, tx, order.UserID, order.ID)
	if err != nil {
		return err
	}
	if already {
		refundsCounter.WithLabelValues("skipped").Inc()
		s.logger.WarnContext(ctx, "Refund already recorded, skipping", "order_id", order.ID)
		return nil
	}

	if _, err := s.accounts.LockForUpdate(ctx, tx, order.UserID); err != nil {
		return err
	}
	inserted, err := s.txns.CreateRefund(ctx, tx, &domain.Transaction{
		UserID:    order.UserID,
		Amount:    order.FinalPrice,
		Reference: order.ID,
	})
	if err != nil {
		return err
	}
	if !inserted {
		refundsCounter.WithLabelValues("skipped").Inc()
		return nil
	}

	balance, err := s.accounts.AdjustBalance(ctx, tx, order.UserID, order.FinalPrice)
	if err != nil {
		return err
	}
	refundsCounter.WithLabelValues("applied").Inc()
	result.RefundApplied = true
	result.NewBalance = &balance
	return nil
}

// CreditByToken credits the account identified by its account token.
// Empty source and reference default to bot and "recarga".
func (s *LedgerService) CreditByToken(ctx context.Context, token string, amount decimal.Decimal, source domain.TransactionSource, reference string) (*CreditResult, error) {
	defer observe("credit_by_token", time.Now())
	if source == "" {
		source = defaultCreditSource
	}
	if reference == "" {
		reference = defaultCreditReference
	}
	return s.credit(ctx, amount, source, reference, func(tx pgx.Tx) (*domain.Account, error) {
		return s.accounts.LockByAccountTokenForUpdate(ctx, tx, token)
	})
}

// AdminRecharge credits a user by id on behalf of an administrator.
func (s *LedgerService) AdminRecharge(ctx context.Context, userID string, amount decimal.Decimal) (*CreditResult, error) {
	defer observe("admin_recharge", time.Now())
	return s.credit(ctx, amount, domain.TransactionSourceManual, adminCreditReference, func(tx pgx.Tx) (*domain.Account, error) {
		return s.accounts.LockForUpdate(ctx, tx, userID)
	})
}

func (s *LedgerService) credit(
	ctx context.Context,
	amount decimal.Decimal,
	source domain.TransactionSource,
	reference string,
	lock func(tx pgx.Tx) (*domain.Account, error),
) (*CreditResult, error) {
	amount = money.ToCurrency(amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", domain.ErrValidation)
	}

	var result CreditResult
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		acc, err := lock(tx)
		if err != nil {
			return err
		}
		balance, err := s.accounts.AdjustBalance(ctx, tx, acc.ID, amount)
		if err != nil {
			return err
		}
		err = s.txns.Create(ctx, tx, &domain.Transaction{
			UserID:    acc.ID,
			Amount:    amount,
			Type:      domain.TransactionTypeCredit,
			Source:    source,
			Reference: reference,
		})
		if err != nil {
			return err
		}
		result = CreditResult{UserID: acc.ID, NewBalance: balance}
		return nil
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	balanceCreditsCounter.WithLabelValues(string(source)).Inc()
	s.logger.InfoContext(ctx, "Balance credited",
		"user_id", result.UserID,
		"amount", amount.StringFixed(2),
		"source", source,
		"reference", reference,
	)
	return &result, nil
}

// GetBalance reads a balance without locking.
func (s *LedgerService) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	acc, err := s.accounts.GetByID(ctx, s.db, userID)
	if err != nil {
		return decimal.Zero, asDomainError(err)
	}
	return acc.Balance, nil
}

// BalanceByToken reads a balance by account token without locking.
func (s *LedgerService) BalanceByToken(ctx context.Context, token string) (decimal.Decimal, error) {
	acc, err := s.accounts.GetByAccountToken(ctx, s.db, token)
	if err != nil {
		return decimal.Zero, asDomainError(err)
	}
	return acc.Balance, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	acc, err := s.accounts.GetByID(ctx, s.db, userID)
	return acc, asDomainError(err)
}

func (s *LedgerService) ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx, s.db, limit, offset)
	return accounts, asDomainError(err)
}

func (s *LedgerService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, s.db, orderID)
	return order, asDomainError(err)
}

func (s *LedgerService) ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, s.db, userID, limit, offset)
	return orders, asDomainError(err)
}

func (s *LedgerService) ListOrders(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	orders, err := s.orders.ListAll(ctx, s.db, limit, offset)
	return orders, asDomainError(err)
}

func (s *LedgerService) ListUserTransactions(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	txns, err := s.txns.ListByUser(ctx, s.db, userID, limit, offset)
	return txns, asDomainError(err)
}
