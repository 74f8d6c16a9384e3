package app

import (
	"errors"
	"fmt"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

var domainErrors = []error{
	domain.ErrUserNotFound,
	domain.ErrDuplicateAccount,
	domain.ErrInsufficientFunds,
	domain.ErrOrderNotFound,
	domain.ErrInvalidStatus,
	domain.ErrInvalidMethod,
	domain.ErrBelowMinimumAmount,
	domain.ErrIntentNotFound,
	domain.ErrIntentInvalidState,
	domain.ErrIntentExpired,
	domain.ErrServiceNotFound,
	domain.ErrValidation,
	domain.ErrStorage,
}

// asDomainError passes domain errors through and tags anything else
// (begin/commit failures, context cancellation) as a storage failure.
func asDomainError(err error) error {
	if err == nil {
		return nil
	}
	for _, de := range domainErrors {
		if errors.Is(err, de) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "storage"
	}
}
