package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/ledger_service/repository"
	"github.com/servis30/golang_services/internal/platform/database"
)

const transactionColumns = `id, user_id, amount, type, source, reference, created_at`

type PgTransactionRepository struct {
	logger *slog.Logger
}

// NewPgTransactionRepository creates a TransactionRepository for PostgreSQL.
// Rows are never updated or deleted.
func NewPgTransactionRepository(logger *slog.Logger) repository.TransactionRepository {
	return &PgTransactionRepository{logger: logger.With("component", "transaction_repository_pg")}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Source, &t.Reference, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func prepareTransaction(t *domain.Transaction) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
}

func (r *PgTransactionRepository) Create(ctx context.Context, q database.Querier, t *domain.Transaction) error {
	prepareTransaction(t)
	query := `INSERT INTO transactions (` + transactionColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.Exec(ctx, query, t.ID, t.UserID, t.Amount, t.Type, t.Source, t.Reference, t.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating transaction", "user_id", t.UserID, "source", t.Source, "error", err)
		return storageErr("create transaction", err)
	}
	return nil
}

func (r *PgTransactionRepository) HasRefund(ctx context.Context, q database.Querier, userID, orderID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM transactions
	          WHERE user_id = $1 AND reference = $2 AND type = 'credit' AND source = 'refund')`
	var exists bool
	if err := q.QueryRow(ctx, query, userID, orderID).Scan(&exists); err != nil {
		return false, storageErr("check refund", err)
	}
	return exists, nil
}

func (r *PgTransactionRepository) CreateRefund(ctx context.Context, q database.Querier, t *domain.Transaction) (bool, error) {
	prepareTransaction(t)
	t.Type = domain.TransactionTypeCredit
	t.Source = domain.TransactionSourceRefund

	// Backed by ux_transactions_refund_reference.
	query := `INSERT INTO transactions (` + transactionColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (user_id, reference) WHERE type = 'credit' AND source = 'refund' DO NOTHING`
	tag, err := q.Exec(ctx, query, t.ID, t.UserID, t.Amount, t.Type, t.Source, t.Reference, t.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating refund transaction", "order_id", t.Reference, "error", err)
		return false, storageErr("create refund", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgTransactionRepository) ListByUser(ctx context.Context, q database.Querier, userID string, limit, offset int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, storageErr("scan transaction", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate transactions", err)
	}
	return txns, nil
}

// FindBalanceDrift returns users whose balance differs from their credits minus debits.
func (r *PgTransactionRepository) FindBalanceDrift(ctx context.Context, q database.Querier) ([]domain.BalanceDrift, error) {
	query := `SELECT u.id, u.balance,
	                 COALESCE(SUM(CASE WHEN t.type = 'credit' THEN t.amount ELSE -t.amount END), 0) AS computed
	          FROM users u
	          LEFT JOIN transactions t ON t.user_id = u.id
	          GROUP BY u.id, u.balance
	          HAVING u.balance <> COALESCE(SUM(CASE WHEN t.type = 'credit' THEN t.amount ELSE -t.amount END), 0)`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, storageErr("find balance drift", err)
	}
	defer rows.Close()

	drifts := []domain.BalanceDrift{}
	for rows.Next() {
		var d domain.BalanceDrift
		if err := rows.Scan(&d.UserID, &d.Balance, &d.Computed); err != nil {
			return nil, storageErr("scan balance drift", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate balance drift", err)
	}
	return drifts, nil
}
