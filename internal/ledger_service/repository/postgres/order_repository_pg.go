package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/ledger_service/repository"
	"github.com/servis30/golang_services/internal/platform/database"
)

const orderColumns = `id, user_id, service_type, original_price, discount, final_price, status, meta, created_at, updated_at`

type PgOrderRepository struct {
	logger *slog.Logger
}

func NewPgOrderRepository(logger *slog.Logger) repository.OrderRepository {
	return &PgOrderRepository{logger: logger.With("component", "order_repository_pg")}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var meta []byte
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.ServiceType,
		&o.OriginalPrice,
		&o.Discount,
		&o.FinalPrice,
		&o.Status,
		&meta,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &o.Meta); err != nil {
			return nil, fmt.Errorf("decoding order meta: %w", err)
		}
	}
	return &o, nil
}

func (r *PgOrderRepository) Create(ctx context.Context, q database.Querier, o *domain.Order) error {
	o.ID = uuid.NewString()
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	var meta []byte
	if o.Meta != nil {
		var err error
		if meta, err = json.Marshal(o.Meta); err != nil {
			return fmt.Errorf("%w: order meta is not serializable: %v", domain.ErrValidation, err)
		}
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.Exec(ctx, query,
		o.ID, o.UserID, o.ServiceType, o.OriginalPrice, o.Discount, o.FinalPrice, o.Status, meta, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating order", "user_id", o.UserID, "error", err)
		return storageErr("create order", err)
	}
	return nil
}

func (r *PgOrderRepository) getOne(ctx context.Context, q database.Querier, op, query, id string) (*domain.Order, error) {
	order, err := scanOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		r.logger.ErrorContext(ctx, "Error scanning order", "op", op, "order_id", id, "error", err)
		return nil, storageErr(op, err)
	}
	return order, nil
}

func (r *PgOrderRepository) GetByID(ctx context.Context, q database.Querier, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.getOne(ctx, q, "get order", query, id)
}

func (r *PgOrderRepository) LockForUpdate(ctx context.Context, q database.Querier, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, q, "lock order", query, id)
}

func (r *PgOrderRepository) UpdateStatus(ctx context.Context, q database.Querier, id string, status domain.OrderStatus) (*domain.Order, error) {
	query := `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + orderColumns
	order, err := scanOrder(q.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		r.logger.ErrorContext(ctx, "Error updating order status", "order_id", id, "status", status, "error", err)
		return nil, storageErr("update order status", err)
	}
	return order, nil
}

func (r *PgOrderRepository) list(ctx context.Context, q database.Querier, query string, args ...any) ([]domain.Order, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, storageErr("scan order", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate orders", err)
	}
	return orders, nil
}

func (r *PgOrderRepository) ListByUser(ctx context.Context, q database.Querier, userID string, limit, offset int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, q, query, userID, limit, offset)
}

func (r *PgOrderRepository) ListAll(ctx context.Context, q database.Querier, limit, offset int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, q, query, limit, offset)
}
