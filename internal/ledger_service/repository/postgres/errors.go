package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

const pgUniqueViolation = "23505"

// storageErr tags unexpected driver errors with domain.ErrStorage while keeping
// the cause inspectable with errors.Is.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
