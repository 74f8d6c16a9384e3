package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

func TestPgTransactionRepository_Create(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgTransactionRepository(testLogger())

	mockPool.ExpectExec(`INSERT INTO transactions`).
		WithArgs(anyArgs(7)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	txn := &domain.Transaction{
		UserID:    "u1",
		Amount:    decimal.NewFromInt(35),
		Type:      domain.TransactionTypeDebit,
		Source:    domain.TransactionSourceOrder,
		Reference: "o1",
	}
	require.NoError(t, repo.Create(context.Background(), mockPool, txn))
	assert.NotEmpty(t, txn.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgTransactionRepository_HasRefund(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgTransactionRepository(testLogger())

	mockPool.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u1", "o1").
		WillReturnRows(mockPool.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasRefund(context.Background(), mockPool, "u1", "o1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgTransactionRepository_CreateRefund(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgTransactionRepository(testLogger())
	ctx := context.Background()
	refundSQL := `INSERT INTO transactions .* ON CONFLICT \(user_id, reference\) WHERE type = 'credit' AND source = 'refund' DO NOTHING`

	t.Run("Inserted", func(t *testing.T) {
		mockPool.ExpectExec(refundSQL).
			WithArgs(anyArgs(7)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		txn := &domain.Transaction{UserID: "u1", Amount: decimal.NewFromInt(35), Reference: "o1"}
		inserted, err := repo.CreateRefund(ctx, mockPool, txn)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Equal(t, domain.TransactionTypeCredit, txn.Type)
		assert.Equal(t, domain.TransactionSourceRefund, txn.Source)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("AlreadyRefunded", func(t *testing.T) {
		mockPool.ExpectExec(refundSQL).
			WithArgs(anyArgs(7)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		inserted, err := repo.CreateRefund(ctx, mockPool, &domain.Transaction{UserID: "u1", Amount: decimal.NewFromInt(35), Reference: "o1"})
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DBError", func(t *testing.T) {
		mockPool.ExpectExec(refundSQL).
			WithArgs(anyArgs(7)...).
			WillReturnError(errors.New("disk full"))

		_, err := repo.CreateRefund(ctx, mockPool, &domain.Transaction{UserID: "u1", Amount: decimal.NewFromInt(35), Reference: "o1"})
		assert.ErrorIs(t, err, domain.ErrStorage)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgTransactionRepository_FindBalanceDrift(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPgTransactionRepository(testLogger())

	rows := mockPool.NewRows([]string{"id", "balance", "computed"}).
		AddRow("u7", decimal.RequireFromString("120.00"), decimal.RequireFromString("100.00"))
	mockPool.ExpectQuery(`HAVING u.balance <>`).WillReturnRows(rows)

	drifts, err := repo.FindBalanceDrift(context.Background(), mockPool)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, "u7", drifts[0].UserID)
	assert.Equal(t, "20", drifts[0].Balance.Sub(drifts[0].Computed).String())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
