package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SettingGlobalDiscountPercent is the key of the default discount percent.
const SettingGlobalDiscountPercent = "global_discount_percent"

// FixedPriceSettingKey returns the settings key holding the fixed price of a legacy
// service, e.g. "cambio-notas" -> "fixed_price_cambio_notas".
func FixedPriceSettingKey(serviceKey string) string {
	return "fixed_price_" + strings.ReplaceAll(serviceKey, "-", "_")
}

// PricingSettings is the global key to decimal mapping.
type PricingSettings map[string]decimal.Decimal
