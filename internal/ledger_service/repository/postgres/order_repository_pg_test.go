package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

var orderCols = []string{"id", "user_id", "service_type", "original_price", "discount", "final_price", "status", "meta", "created_at", "updated_at"}

func orderRow(rows *pgxmock.Rows, id string, status domain.OrderStatus, meta []byte) *pgxmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(
		id, "u1", "taxi",
		decimal.RequireFromString("50.00"), decimal.RequireFromString("15.00"), decimal.RequireFromString("35.00"),
		status, meta, now, now,
	)
}

func TestPgOrderRepository_Create(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgOrderRepository(testLogger())

	mockPool.ExpectExec(`INSERT INTO orders`).
		WithArgs(anyArgs(10)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	o := &domain.Order{
		UserID:        "u1",
		ServiceType:   "taxi",
		OriginalPrice: decimal.NewFromInt(50),
		Discount:      decimal.NewFromInt(15),
		FinalPrice:    decimal.NewFromInt(35),
		Status:        domain.OrderStatusPending,
		Meta:          domain.Metadata{"origen": "Miraflores"},
	}
	require.NoError(t, repo.Create(context.Background(), mockPool, o))
	assert.NotEmpty(t, o.ID)
	assert.False(t, o.CreatedAt.IsZero())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgOrderRepository_LockForUpdate(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgOrderRepository(testLogger())
	ctx := context.Background()

	t.Run("FoundWithMeta", func(t *testing.T) {
		rows := orderRow(mockPool.NewRows(orderCols), "o1", domain.OrderStatusPending, []byte(`{"origen":"Miraflores","pasajeros":2}`))
		mockPool.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WithArgs("o1").
			WillReturnRows(rows)

		order, err := repo.LockForUpdate(ctx, mockPool, "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, order.Status)
		assert.Equal(t, "Miraflores", order.Meta["origen"])
		assert.Equal(t, float64(2), order.Meta["pasajeros"])
		assert.True(t, order.FinalPrice.Equal(order.OriginalPrice.Sub(order.Discount)))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool.ExpectQuery(`FROM orders WHERE id = \$1 FOR UPDATE`).
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.LockForUpdate(ctx, mockPool, "missing")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgOrderRepository_UpdateStatus(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgOrderRepository(testLogger())

	rows := orderRow(mockPool.NewRows(orderCols), "o1", domain.OrderStatusCompleted, nil)
	mockPool.ExpectQuery(`UPDATE orders SET status = \$2`).
		WithArgs("o1", domain.OrderStatusCompleted).
		WillReturnRows(rows)

	order, err := repo.UpdateStatus(context.Background(), mockPool, "o1", domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.Nil(t, order.Meta)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgOrderRepository_ListByUser(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgOrderRepository(testLogger())

	rows := mockPool.NewRows(orderCols)
	orderRow(rows, "o2", domain.OrderStatusPending, nil)
	orderRow(rows, "o1", domain.OrderStatusCancelled, nil)
	mockPool.ExpectQuery(`FROM orders WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs("u1", 50, 0).
		WillReturnRows(rows)

	orders, err := repo.ListByUser(context.Background(), mockPool, "u1", 50, 0)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o2", orders[0].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
