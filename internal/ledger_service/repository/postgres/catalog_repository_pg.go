package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/ledger_service/repository"
	"github.com/servis30/golang_services/internal/platform/database"
)

const catalogColumns = `key, name, pricing_type, fixed_price, discount_percent, required_fields, active, created_at, updated_at`

type PgCatalogRepository struct {
	logger *slog.Logger
}

func NewPgCatalogRepository(logger *slog.Logger) repository.CatalogRepository {
	return &PgCatalogRepository{logger: logger.With("component", "catalog_repository_pg")}
}

func scanCatalogEntry(row pgx.Row) (*domain.CatalogEntry, error) {
	var e domain.CatalogEntry
	var fixedPrice, discountPercent decimal.NullDecimal
	var fields []byte
	err := row.Scan(
		&e.Key,
		&e.Name,
		&e.PricingType,
		&fixedPrice,
		&discountPercent,
		&fields,
		&e.Active,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if fixedPrice.Valid {
		e.FixedPrice = &fixedPrice.Decimal
	}
	if discountPercent.Valid {
		e.DiscountPercent = &discountPercent.Decimal
	}
	e.RequiredFields = []domain.RequiredField{}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &e.RequiredFields); err != nil {
			return nil, fmt.Errorf("decoding required_fields: %w", err)
		}
	}
	return &e, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func encodeFields(fields []domain.RequiredField) ([]byte, error) {
	if fields == nil {
		fields = []domain.RequiredField{}
	}
	return json.Marshal(fields)
}

func (r *PgCatalogRepository) getOne(ctx context.Context, q database.Querier, query, key string) (*domain.CatalogEntry, error) {
	entry, err := scanCatalogEntry(q.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		r.logger.ErrorContext(ctx, "Error scanning catalog entry", "key", key, "error", err)
		return nil, storageErr("get catalog entry", err)
	}
	return entry, nil
}

func (r *PgCatalogRepository) GetByKey(ctx context.Context, q database.Querier, key string) (*domain.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM service_catalog WHERE key = $1`
	return r.getOne(ctx, q, query, key)
}

func (r *PgCatalogRepository) GetActiveByKey(ctx context.Context, q database.Querier, key string) (*domain.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM service_catalog WHERE key = $1 AND active = TRUE`
	return r.getOne(ctx, q, query, key)
}

func (r *PgCatalogRepository) List(ctx context.Context, q database.Querier, activeOnly bool) ([]domain.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM service_catalog`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, storageErr("list catalog", err)
	}
	defer rows.Close()

	entries := []domain.CatalogEntry{}
	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, storageErr("scan catalog entry", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate catalog", err)
	}
	return entries, nil
}

func (r *PgCatalogRepository) Create(ctx context.Context, q database.Querier, e *domain.CatalogEntry) error {
	fields, err := encodeFields(e.RequiredFields)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now

	query := `INSERT INTO service_catalog (` + catalogColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = q.Exec(ctx, query,
		e.Key, e.Name, e.PricingType, nullDecimal(e.FixedPrice), nullDecimal(e.DiscountPercent), fields, e.Active, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: service key %q already exists", domain.ErrValidation, e.Key)
		}
		r.logger.ErrorContext(ctx, "Error creating catalog entry", "key", e.Key, "error", err)
		return storageErr("create catalog entry", err)
	}
	return nil
}

func (r *PgCatalogRepository) Update(ctx context.Context, q database.Querier, e *domain.CatalogEntry) error {
	fields, err := encodeFields(e.RequiredFields)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	e.UpdatedAt = time.Now().UTC()

	query := `UPDATE service_catalog
	          SET name = $2, pricing_type = $3, fixed_price = $4, discount_percent = $5,
	              required_fields = $6, active = $7, updated_at = $8
	          WHERE key = $1`
	tag, err := q.Exec(ctx, query,
		e.Key, e.Name, e.PricingType, nullDecimal(e.FixedPrice), nullDecimal(e.DiscountPercent), fields, e.Active, e.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating catalog entry", "key", e.Key, "error", err)
		return storageErr("update catalog entry", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrServiceNotFound
	}
	return nil
}

func (r *PgCatalogRepository) Delete(ctx context.Context, q database.Querier, key string) error {
	tag, err := q.Exec(ctx, `DELETE FROM service_catalog WHERE key = $1`, key)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting catalog entry", "key", key, "error", err)
		return storageErr("delete catalog entry", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrServiceNotFound
	}
	return nil
}
