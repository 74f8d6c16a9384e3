package app

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
	"github.com/servis30/golang_services/internal/ledger_service/repository"
	"github.com/servis30/golang_services/internal/platform/database"
	"github.com/servis30/golang_services/internal/platform/money"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CatalogInvalidator drops cached catalog entries after a write.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// CatalogEntryInput is the administrative payload for a catalog entry.
type CatalogEntryInput struct {
	Key             string                 `json:"key" validate:"required,max=64,slug"`
	Name            string                 `json:"name" validate:"required,max=128"`
	PricingType     domain.PricingType     `json:"pricing_type" validate:"required,oneof=fixed discount"`
	FixedPrice      *decimal.Decimal       `json:"fixed_price"`
	DiscountPercent *decimal.Decimal       `json:"discount_percent"`
	RequiredFields  []domain.RequiredField `json:"required_fields" validate:"dive"`
	Active          *bool                  `json:"active"`
}

// storeCatalogReader reads active catalog entries straight from Postgres.
type storeCatalogReader struct {
	db   database.Querier
	repo repository.CatalogRepository
}

// NewStoreCatalogReader returns a CatalogReader backed by the catalog repository.
func NewStoreCatalogReader(db database.Querier, repo repository.CatalogRepository) CatalogReader {
	return &storeCatalogReader{db: db, repo: repo}
}

func (r *storeCatalogReader) GetActive(ctx context.Context, key string) (*domain.CatalogEntry, error) {
	return r.repo.GetActiveByKey(ctx, r.db, key)
}

// CatalogService administers the service catalog and the global pricing settings.
type CatalogService struct {
	db          database.Querier
	catalog     repository.CatalogRepository
	settings    repository.SettingsRepository
	invalidator CatalogInvalidator
	defaults    PricingDefaults
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewCatalogService(
	db database.Querier,
	catalog repository.CatalogRepository,
	settings repository.SettingsRepository,
	invalidator CatalogInvalidator,
	defaults PricingDefaults,
	logger *slog.Logger,
) *CatalogService {
	v := validator.New()
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return &CatalogService{
		db:          db,
		catalog:     catalog,
		settings:    settings,
		invalidator: invalidator,
		defaults:    defaults,
		validate:    v,
		logger:      logger.With("service", "catalog"),
	}
}

func (s *CatalogService) ListActive(ctx context.Context) ([]domain.CatalogEntry, error) {
	entries, err := s.catalog.List(ctx, s.db, true)
	return entries, asDomainError(err)
}

func (s *CatalogService) ListAll(ctx context.Context) ([]domain.CatalogEntry, error) {
	entries, err := s.catalog.List(ctx, s.db, false)
	return entries, asDomainError(err)
}

// Get returns an active entry or domain.ErrServiceNotFound.
func (s *CatalogService) Get(ctx context.Context, key string) (*domain.CatalogEntry, error) {
	entry, err := s.catalog.GetActiveByKey(ctx, s.db, key)
	return entry, asDomainError(err)
}

func (s *CatalogService) Create(ctx context.Context, in CatalogEntryInput) (*domain.CatalogEntry, error) {
	entry, err := s.toEntry(in)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.Create(ctx, s.db, entry); err != nil {
		return nil, asDomainError(err)
	}
	s.invalidate(ctx, entry.Key)
	s.logger.InfoContext(ctx, "Catalog entry created", "key", entry.Key, "pricing_type", entry.PricingType)
	return entry, nil
}

func (s *CatalogService) Update(ctx context.Context, key string, in CatalogEntryInput) (*domain.CatalogEntry, error) {
	in.Key = key
	entry, err := s.toEntry(in)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.Update(ctx, s.db, entry); err != nil {
		return nil, asDomainError(err)
	}
	s.invalidate(ctx, key)
	s.logger.InfoContext(ctx, "Catalog entry updated", "key", key, "active", entry.Active)
	return entry, nil
}

func (s *CatalogService) Delete(ctx context.Context, key string) error {
	if err := s.catalog.Delete(ctx, s.db, key); err != nil {
		return asDomainError(err)
	}
	s.invalidate(ctx, key)
	s.logger.InfoContext(ctx, "Catalog entry deleted", "key", key)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, key string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "Catalog cache invalidation failed", "key", key, "error", err)
	}
}

func (s *CatalogService) toEntry(in CatalogEntryInput) (*domain.CatalogEntry, error) {
	in.Key = strings.TrimSpace(in.Key)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	entry := &domain.CatalogEntry{
		Key:            in.Key,
		Name:           in.Name,
		PricingType:    in.PricingType,
		RequiredFields: in.RequiredFields,
		Active:         in.Active == nil || *in.Active,
	}
	switch in.PricingType {
	case domain.PricingTypeFixed:
		if in.FixedPrice == nil || !in.FixedPrice.IsPositive() {
			return nil, fmt.Errorf("%w: fixed services need a fixed_price greater than zero", domain.ErrValidation)
		}
		p := money.ToCurrency(*in.FixedPrice)
		entry.FixedPrice = &p
	case domain.PricingTypeDiscount:
		if in.DiscountPercent != nil {
			if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
				return nil, fmt.Errorf("%w: discount_percent must be between 0 and 100", domain.ErrValidation)
			}
			p := money.ToCurrency(*in.DiscountPercent)
			entry.DiscountPercent = &p
		}
	}
	if entry.RequiredFields == nil {
		entry.RequiredFields = []domain.RequiredField{}
	}
	return entry, nil
}

// Settings implements SettingsReader.
func (s *CatalogService) Settings(ctx context.Context) (domain.PricingSettings, error) {
	return s.settings.GetAll(ctx, s.db)
}

// UpdateSetting changes one global pricing setting.
func (s *CatalogService) UpdateSetting(ctx context.Context, key string, value decimal.Decimal) error {
	switch {
	case key == domain.SettingGlobalDiscountPercent:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return fmt.Errorf("%w: %s must be between 0 and 100", domain.ErrValidation, key)
		}
	case strings.HasPrefix(key, "fixed_price_"):
		if value.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrValidation, key)
		}
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrValidation, key)
	}

	if err := s.settings.Upsert(ctx, s.db, key, money.ToCurrency(value)); err != nil {
		return asDomainError(err)
	}
	s.logger.InfoContext(ctx, "Pricing setting updated", "key", key, "value", value.StringFixed(2))
	return nil
}

// EnsureDefaults provisions missing settings once at startup so read paths never write.
func (s *CatalogService) EnsureDefaults(ctx context.Context) error {
	defaults := []struct {
		key   string
		value decimal.Decimal
	}{
		{domain.SettingGlobalDiscountPercent, s.defaults.DiscountPercent},
		{domain.FixedPriceSettingKey(s.defaults.LegacyFixedServiceKey), s.defaults.FixedPrice},
	}
	for _, d := range defaults {
		inserted, err := s.settings.InsertIfAbsent(ctx, s.db, d.key, d.value)
		if err != nil {
			return fmt.Errorf("provisioning setting %s: %w", d.key, err)
		}
		if inserted {
			s.logger.InfoContext(ctx, "Provisioned default pricing setting", "key", d.key, "value", d.value.StringFixed(2))
		}
	}
	return nil
}
