package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingType selects how a catalog entry prices its orders.
type PricingType string

const (
	PricingTypeFixed    PricingType = "fixed"
	PricingTypeDiscount PricingType = "discount"
)

// RequiredField describes one metadata field the caller must supply.
type RequiredField struct {
	Key      string `json:"key" validate:"required,max=64"`
	Label    string `json:"label" validate:"required,max=128"`
	Type     string `json:"type" validate:"required,oneof=text number email tel date password"`
	Required bool   `json:"required"`
}

// CatalogEntry is an administrator-configured service definition.
type CatalogEntry struct {
	Key             string           `json:"key"`
	Name            string           `json:"name"`
	PricingType     PricingType      `json:"pricing_type"`
	FixedPrice      *decimal.Decimal `json:"fixed_price,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	RequiredFields  []RequiredField  `json:"required_fields"`
	Active          bool             `json:"active"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
