package postgres

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/ledger_service/repository"
	"github.com/servis30/golang_services/internal/platform/database"
)

type PgSettingsRepository struct {
	logger *slog.Logger
}

func NewPgSettingsRepository(logger *slog.Logger) repository.SettingsRepository {
	return &PgSettingsRepository{logger: logger.With("component", "settings_repository_pg")}
}

func (r *PgSettingsRepository) GetAll(ctx context.Context, q database.Querier) (domain.PricingSettings, error) {
	rows, err := q.Query(ctx, `SELECT key, value FROM pricing_settings`)
	if err != nil {
		return nil, storageErr("read settings", err)
	}
	defer rows.Close()

	settings := domain.PricingSettings{}
	for rows.Next() {
		var key string
		var value decimal.Decimal
		if err := rows.Scan(&key, &value); err != nil {
			return nil, storageErr("scan setting", err)
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate settings", err)
	}
	return settings, nil
}

func (r *PgSettingsRepository) Upsert(ctx context.Context, q database.Querier, key string, value decimal.Decimal) error {
	query := `INSERT INTO pricing_settings (key, value, updated_at) VALUES ($1, $2, NOW())
	          ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := q.Exec(ctx, query, key, value); err != nil {
		r.logger.ErrorContext(ctx, "Error upserting setting", "key", key, "error", err)
		return storageErr("upsert setting", err)
	}
	return nil
}

// InsertIfAbsent provisions a default without touching an existing value.
func (r *PgSettingsRepository) InsertIfAbsent(ctx context.Context, q database.Querier, key string, value decimal.Decimal) (bool, error) {
	query := `INSERT INTO pricing_settings (key, value, updated_at) VALUES ($1, $2, NOW())
	          ON CONFLICT (key) DO NOTHING`
	tag, err := q.Exec(ctx, query, key, value)
	if err != nil {
		return false, storageErr("provision setting", err)
	}
	return tag.RowsAffected() == 1, nil
}
