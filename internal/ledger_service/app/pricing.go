package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/platform/money"
)

// StrategyKind tags how an order price is computed.
type StrategyKind string

const (
	StrategyCatalogFixed    StrategyKind = "catalog_fixed"
	StrategyCatalogDiscount StrategyKind = "catalog_discount"
	StrategyLegacyFixed     StrategyKind = "legacy_fixed"
	StrategyLegacyDiscount  StrategyKind = "legacy_discount"
)

var hundred = decimal.NewFromInt(100)

// PricingStrategy is resolved once per service key and then applied purely.
type PricingStrategy struct {
	Kind            StrategyKind
	FixedPrice      decimal.Decimal
	DiscountPercent decimal.Decimal
	RequiredFields  []domain.RequiredField
}

func (s PricingStrategy) isFixed() bool {
	return s.Kind == StrategyCatalogFixed || s.Kind == StrategyLegacyFixed
}

// Quote is a resolved order price. Final == Original - Discount.
type Quote struct {
	Original       decimal.Decimal
	Discount       decimal.Decimal
	Final          decimal.Decimal
	Strategy       StrategyKind
	RequiredFields []domain.RequiredField
}

// Apply prices raw under the strategy. Fixed strategies ignore raw.
func (s PricingStrategy) Apply(raw decimal.Decimal) (Quote, error) {
	q := Quote{Strategy: s.Kind, RequiredFields: s.RequiredFields}
	if s.isFixed() {
		q.Original = money.ToCurrency(s.FixedPrice)
		q.Discount = decimal.Zero
		q.Final = q.Original
		return q, nil
	}

	if !raw.IsPositive() {
		return Quote{}, fmt.Errorf("%w: price must be greater than zero", domain.ErrValidation)
	}
	q.Original = money.ToCurrency(raw)
	q.Discount = money.Percent(q.Original, clampPercent(s.DiscountPercent))
	q.Final = money.ToCurrency(q.Original.Sub(q.Discount))
	return q, nil
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// CatalogReader returns the active catalog entry for a key or domain.ErrServiceNotFound.
type CatalogReader interface {
	GetActive(ctx context.Context, key string) (*domain.CatalogEntry, error)
}

// SettingsReader returns the global pricing settings.
type SettingsReader interface {
	Settings(ctx context.Context) (domain.PricingSettings, error)
}

// PricingDefaults are the hard-coded values used when settings cannot be read.
type PricingDefaults struct {
	LegacyFixedServiceKey string
	DiscountPercent       decimal.Decimal
	FixedPrice            decimal.Decimal
}

// PricingResolver computes order prices. Catalog and settings read failures
// degrade to defaults; it never returns a storage error.
type PricingResolver struct {
	catalog  CatalogReader
	settings SettingsReader
	defaults PricingDefaults
	logger   *slog.Logger

	// lastKnown holds the last active catalog entry seen per key, used
	// while the catalog store is unreachable.
	lastKnown sync.Map
}

func NewPricingResolver(catalog CatalogReader, settings SettingsReader, defaults PricingDefaults, logger *slog.Logger) *PricingResolver {
	return &PricingResolver{
		catalog:  catalog,
		settings: settings,
		defaults: defaults,
		logger:   logger.With("component", "pricing_resolver"),
	}
}

// StrategyFor resolves the pricing strategy for key.
func (r *PricingResolver) StrategyFor(ctx context.Context, key string) PricingStrategy {
	entry, err := r.catalog.GetActive(ctx, key)
	switch {
	case err == nil:
		r.lastKnown.Store(key, *entry)
		if s, ok := r.catalogStrategy(ctx, entry); ok {
			return s
		}
	case errors.Is(err, domain.ErrServiceNotFound):
		r.lastKnown.Delete(key)
	default:
		pricingFallbackCounter.WithLabelValues("catalog_unavailable").Inc()
		if v, ok := r.lastKnown.Load(key); ok {
			known := v.(domain.CatalogEntry)
			r.logger.WarnContext(ctx, "Catalog read failed, using last known entry", "service", key, "error", err)
			if s, ok := r.catalogStrategy(ctx, &known); ok {
				return s
			}
			break
		}
		r.logger.WarnContext(ctx, "Catalog read failed, using legacy pricing", "service", key, "error", err)
	}
	return r.legacyStrategy(ctx, key)
}

func (r *PricingResolver) catalogStrategy(ctx context.Context, entry *domain.CatalogEntry) (PricingStrategy, bool) {
	switch entry.PricingType {
	case domain.PricingTypeFixed:
		if entry.FixedPrice == nil {
			r.logger.WarnContext(ctx, "Fixed catalog entry without price, using legacy pricing", "service", entry.Key)
			return PricingStrategy{}, false
		}
		return PricingStrategy{
			Kind:           StrategyCatalogFixed,
			FixedPrice:     *entry.FixedPrice,
			RequiredFields: entry.RequiredFields,
		}, true
	case domain.PricingTypeDiscount:
		var pct decimal.Decimal
		if entry.DiscountPercent != nil {
			pct = clampPercent(*entry.DiscountPercent)
		} else {
			pct = r.globalDiscount(ctx)
		}
		return PricingStrategy{
			Kind:            StrategyCatalogDiscount,
			DiscountPercent: pct,
			RequiredFields:  entry.RequiredFields,
		}, true
	}
	r.logger.WarnContext(ctx, "Unknown pricing type, using legacy pricing", "service", entry.Key, "pricing_type", entry.PricingType)
	return PricingStrategy{}, false
}

func (r *PricingResolver) legacyStrategy(ctx context.Context, key string) PricingStrategy {
	if key == r.defaults.LegacyFixedServiceKey {
		return PricingStrategy{Kind: StrategyLegacyFixed, FixedPrice: r.legacyFixedPrice(ctx, key)}
	}
	return PricingStrategy{Kind: StrategyLegacyDiscount, DiscountPercent: r.globalDiscount(ctx)}
}

func (r *PricingResolver) readSetting(ctx context.Context, key string) (decimal.Decimal, bool) {
	settings, err := r.settings.Settings(ctx)
	if err != nil {
		pricingFallbackCounter.WithLabelValues("settings_unavailable").Inc()
		r.logger.WarnContext(ctx, "Settings read failed, using defaults", "setting", key, "error", err)
		return decimal.Zero, false
	}
	v, ok := settings[key]
	if !ok {
		pricingFallbackCounter.WithLabelValues("setting_missing").Inc()
		r.logger.WarnContext(ctx, "Setting not provisioned, using default", "setting", key)
	}
	return v, ok
}

func (r *PricingResolver) globalDiscount(ctx context.Context) decimal.Decimal {
	if v, ok := r.readSetting(ctx, domain.SettingGlobalDiscountPercent); ok {
		return clampPercent(v)
	}
	return r.defaults.DiscountPercent
}

func (r *PricingResolver) legacyFixedPrice(ctx context.Context, key string) decimal.Decimal {
	if v, ok := r.readSetting(ctx, domain.FixedPriceSettingKey(key)); ok && !v.IsNegative() {
		return v
	}
	return r.defaults.FixedPrice
}

// ResolvePrice computes {original, discount, final} for an order on key.
func (r *PricingResolver) ResolvePrice(ctx context.Context, key string, raw decimal.Decimal) (Quote, error) {
	return r.StrategyFor(ctx, key).Apply(raw)
}
