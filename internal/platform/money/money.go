// Package money normalizes monetary amounts to the two-decimal currency unit.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrNotFinite is returned for NaN or infinite inputs.
var ErrNotFinite = errors.New("amount is not a finite number")

// Places is the number of fractional digits kept for every stored amount.
const Places = 2

// ToCurrency rounds d to two decimals, half away from zero.
// Idempotent: ToCurrency(ToCurrency(x)) == ToCurrency(x).
func ToCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// FromFloat converts an inbound float to a decimal without normalizing it.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrNotFinite
	}
	return decimal.NewFromFloat(f), nil
}

// Parse reads a decimal amount from its string form.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Percent returns ToCurrency(amount * percent / 100).
func Percent(amount, percent decimal.Decimal) decimal.Decimal {
	return ToCurrency(amount.Mul(percent).Div(decimal.NewFromInt(100)))
}
