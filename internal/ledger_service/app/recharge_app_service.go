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
	"github.com/servis30/golang_services/internal/platform/clock"
	"github.com/servis30/golang_services/internal/platform/database"
	"github.com/servis30/golang_services/internal/platform/money"
)

// DefaultIntentTTL is how long a recharge intent stays verifiable.
const DefaultIntentTTL = 30 * time.Minute

// RechargeService tracks user-declared top-ups until the recharge bot verifies them.
// Expiry is lazy: it is only observed by VerifyIntent.
type RechargeService struct {
	db        database.DB
	accounts  repository.AccountRepository
	intents   repository.RechargeIntentRepository
	publisher EventPublisher
	clock     clock.Clock
	minimums  map[domain.RechargeMethod]decimal.Decimal
	ttl       time.Duration
	logger    *slog.Logger
}

func NewRechargeService(
	db database.DB,
	accounts repository.AccountRepository,
	intents repository.RechargeIntentRepository,
	publisher EventPublisher,
	clk clock.Clock,
	minimums map[domain.RechargeMethod]decimal.Decimal,
	ttl time.Duration,
	logger *slog.Logger,
) *RechargeService {
	if ttl <= 0 {
		ttl = DefaultIntentTTL
	}
	return &RechargeService{
		db:        db,
		accounts:  accounts,
		intents:   intents,
		publisher: publisher,
		clock:     clk,
		minimums:  minimums,
		ttl:       ttl,
		logger:    logger.With("service", "recharge"),
	}
}

// CreateIntent records a top-up request after checking the rail and its minimum.
func (s *RechargeService) CreateIntent(ctx context.Context, userID, method string, amount decimal.Decimal) (*domain.RechargeIntent, error) {
	m := domain.RechargeMethod(strings.ToUpper(strings.TrimSpace(method)))
	minimum, ok := s.minimums[m]
	if !ok {
		return nil, domain.ErrInvalidMethod
	}
	// Minimums apply to the amount as submitted, before rounding.
	if amount.LessThan(minimum) || !amount.IsPositive() {
		rechargeIntentsCounter.WithLabelValues(string(m), "rejected").Inc()
		return nil, fmt.Errorf("%w: minimum for %s is S/ %s", domain.ErrBelowMinimumAmount, m, minimum.StringFixed(2))
	}
	amount = money.ToCurrency(amount)

	acc, err := s.accounts.GetByID(ctx, s.db, userID)
	if err != nil {
		return nil, asDomainError(err)
	}

	intent := &domain.RechargeIntent{
		UserID:     acc.ID,
		TokenSaldo: acc.TokenSaldo,
		Method:     m,
		Amount:     amount,
		Status:     domain.IntentStatusCreated,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.intents.Create(ctx, s.db, intent); err != nil {
		return nil, asDomainError(err)
	}

	rechargeIntentsCounter.WithLabelValues(string(m), "created").Inc()
	s.logger.InfoContext(ctx, "Recharge intent created", "intent_id", intent.ID, "user_id", acc.ID, "method", m, "amount", amount.StringFixed(2))

	s.publisher.Publish(domain.RechargeRequestedEvent{
		IntentID:   intent.ID,
		UserID:     intent.UserID,
		TokenSaldo: intent.TokenSaldo,
		Method:     intent.Method,
		Amount:     intent.Amount,
		CreatedAt:  intent.CreatedAt,
	})
	return intent, nil
}

// VerifyIntent consumes a created intent exactly once. An intent past its TTL
// is persisted as expired before ErrIntentExpired is returned.
func (s *RechargeService) VerifyIntent(ctx context.Context, intentID string) (*domain.VerifiedIntent, error) {
	defer observe("verify_intent", time.Now())

	var verified *domain.VerifiedIntent
	var expired *domain.RechargeIntent
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		in, err := s.intents.LockForUpdate(ctx, tx, intentID)
		if err != nil {
			return err
		}
		if in.Status != domain.IntentStatusCreated {
			return domain.ErrIntentInvalidState
		}
		if s.clock.Now().Sub(in.CreatedAt) > s.ttl {
			// Commit the expiry; the error is reported after the transaction.
			if err := s.intents.UpdateStatus(ctx, tx, in.ID, domain.IntentStatusExpired); err != nil {
				return err
			}
			expired = in
			return nil
		}
		if err := s.intents.UpdateStatus(ctx, tx, in.ID, domain.IntentStatusVerified); err != nil {
			return err
		}
		verified = &domain.VerifiedIntent{
			IntentID:   in.ID,
			Method:     in.Method,
			Amount:     in.Amount,
			TokenSaldo: in.TokenSaldo,
		}
		return nil
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	if expired != nil {
		rechargeIntentsCounter.WithLabelValues(string(expired.Method), "expired").Inc()
		s.logger.InfoContext(ctx, "Recharge intent expired", "intent_id", intentID, "created_at", expired.CreatedAt)
		return nil, domain.ErrIntentExpired
	}
	rechargeIntentsCounter.WithLabelValues(string(verified.Method), "verified").Inc()
	s.logger.InfoContext(ctx, "Recharge intent verified", "intent_id", intentID, "method", verified.Method)
	return verified, nil
}

// MinimumsFromConfig builds the per-rail minimum table.
func MinimumsFromConfig(yape, efectivo, usdt float64) map[domain.RechargeMethod]decimal.Decimal {
	return map[domain.RechargeMethod]decimal.Decimal{
		domain.RechargeMethodYape:     money.ToCurrency(decimal.NewFromFloat(yape)),
		domain.RechargeMethodEfectivo: money.ToCurrency(decimal.NewFromFloat(efectivo)),
		domain.RechargeMethodUSDT:     money.ToCurrency(decimal.NewFromFloat(usdt)),
	}
}
