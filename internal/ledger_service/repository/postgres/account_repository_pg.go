package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/ledger_service/repository"
	"github.com/servis30/golang_services/internal/platform/database"
)

const accountColumns = `id, name, email, phone, password_hash, role, token_saldo, balance, created_at, updated_at`

type PgAccountRepository struct {
	logger *slog.Logger
}

func NewPgAccountRepository(logger *slog.Logger) repository.AccountRepository {
	return &PgAccountRepository{logger: logger.With("component", "account_repository_pg")}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.Phone,
		&a.PasswordHash,
		&a.Role,
		&a.TokenSaldo,
		&a.Balance,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PgAccountRepository) Create(ctx context.Context, q database.Querier, a *domain.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Role == "" {
		a.Role = domain.RoleUser
	}

	query := `INSERT INTO users (` + accountColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.Exec(ctx, query,
		a.ID, a.Name, a.Email, a.Phone, a.PasswordHash, a.Role, a.TokenSaldo, a.Balance, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAccount
		}
		r.logger.ErrorContext(ctx, "Error creating account", "error", err)
		return storageErr("create account", err)
	}
	return nil
}

func (r *PgAccountRepository) getOne(ctx context.Context, q database.Querier, op, query string, arg any) (*domain.Account, error) {
	account, err := scanAccount(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		r.logger.ErrorContext(ctx, "Error scanning account", "op", op, "error", err)
		return nil, storageErr(op, err)
	}
	return account, nil
}

func (r *PgAccountRepository) GetByID(ctx context.Context, q database.Querier, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, q, "get account by id", query, id)
}

func (r *PgAccountRepository) GetByAccountToken(ctx context.Context, q database.Querier, token string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE token_saldo = $1`
	return r.getOne(ctx, q, "get account by token", query, token)
}

func (r *PgAccountRepository) GetByEmail(ctx context.Context, q database.Querier, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.getOne(ctx, q, "get account by email", query, email)
}

func (r *PgAccountRepository) LockForUpdate(ctx context.Context, q database.Querier, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, q, "lock account", query, id)
}

func (r *PgAccountRepository) LockByAccountTokenForUpdate(ctx context.Context, q database.Querier, token string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE token_saldo = $1 FOR UPDATE`
	return r.getOne(ctx, q, "lock account by token", query, token)
}

func (r *PgAccountRepository) AdjustBalance(ctx context.Context, q database.Querier, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `UPDATE users SET balance = ROUND(balance + $2, 2), updated_at = NOW()
	          WHERE id = $1 RETURNING balance`
	var balance decimal.Decimal
	if err := q.QueryRow(ctx, query, id, delta).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrUserNotFound
		}
		r.logger.ErrorContext(ctx, "Error adjusting balance", "user_id", id, "error", err)
		return decimal.Zero, storageErr("adjust balance", err)
	}
	return balance, nil
}

func (r *PgAccountRepository) List(ctx context.Context, q database.Querier, limit, offset int) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, storageErr("scan account", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate accounts", err)
	}
	return accounts, nil
}
