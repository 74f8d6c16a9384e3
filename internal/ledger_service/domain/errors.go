package domain

import "errors"

// Domain errors surfaced verbatim to callers. Messages are user-facing.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateAccount   = errors.New("an account with this email already exists")
	ErrInsufficientFunds  = errors.New("insufficient balance for this order")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrInvalidMethod      = errors.New("invalid recharge method")
	ErrBelowMinimumAmount = errors.New("amount is below the minimum for this method")
	ErrIntentNotFound     = errors.New("recharge intent not found")
	ErrIntentInvalidState = errors.New("recharge intent is not in a verifiable state")
	ErrIntentExpired      = errors.New("recharge intent expired")
	ErrServiceNotFound    = errors.New("service not found")
	ErrValidation         = errors.New("validation failed")
	ErrStorage            = errors.New("storage failure")
)
