package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/ledger_service/repository"
	"github.com/servis30/golang_services/internal/platform/database"
)

const intentColumns = `id, user_id, token_saldo, method, amount, status, created_at, updated_at`

type PgRechargeIntentRepository struct {
	logger *slog.Logger
}

func NewPgRechargeIntentRepository(logger *slog.Logger) repository.RechargeIntentRepository {
	return &PgRechargeIntentRepository{logger: logger.With("component", "recharge_intent_repository_pg")}
}

func (r *PgRechargeIntentRepository) Create(ctx context.Context, q database.Querier, in *domain.RechargeIntent) error {
	in.ID = uuid.NewString()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	in.UpdatedAt = in.CreatedAt
	if in.Status == "" {
		in.Status = domain.IntentStatusCreated
	}

	query := `INSERT INTO recharge_intents (` + intentColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.Exec(ctx, query,
		in.ID, in.UserID, in.TokenSaldo, in.Method, in.Amount, in.Status, in.CreatedAt, in.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating recharge intent", "user_id", in.UserID, "error", err)
		return storageErr("create recharge intent", err)
	}
	return nil
}

func (r *PgRechargeIntentRepository) LockForUpdate(ctx context.Context, q database.Querier, id string) (*domain.RechargeIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM recharge_intents WHERE id = $1 FOR UPDATE`
	var in domain.RechargeIntent
	err := q.QueryRow(ctx, query, id).Scan(
		&in.ID, &in.UserID, &in.TokenSaldo, &in.Method, &in.Amount, &in.Status, &in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntentNotFound
		}
		r.logger.ErrorContext(ctx, "Error locking recharge intent", "intent_id", id, "error", err)
		return nil, storageErr("lock recharge intent", err)
	}
	return &in, nil
}

func (r *PgRechargeIntentRepository) UpdateStatus(ctx context.Context, q database.Querier, id string, status domain.IntentStatus) error {
	tag, err := q.Exec(ctx, `UPDATE recharge_intents SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return storageErr("update recharge intent", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIntentNotFound
	}
	return nil
}
