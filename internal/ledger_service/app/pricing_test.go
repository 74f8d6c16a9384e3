package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

func testDefaults() PricingDefaults {
	return PricingDefaults{
		LegacyFixedServiceKey: "cambio-notas",
		DiscountPercent:       decimal.NewFromInt(30),
		FixedPrice:            decimal.NewFromInt(350),
	}
}

func dptr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func assertQuote(t *testing.T, q Quote, original, discount, final string) {
	t.Helper()
	assert.True(t, q.Original.Equal(decimal.RequireFromString(original)), "original %s", q.Original)
	assert.True(t, q.Discount.Equal(decimal.RequireFromString(discount)), "discount %s", q.Discount)
	assert.True(t, q.Final.Equal(decimal.RequireFromString(final)), "final %s", q.Final)
	assert.True(t, q.Final.Equal(q.Original.Sub(q.Discount)))
}

func TestPricingResolver_ResolvePrice(t *testing.T) {
	ctx := context.Background()
	settings := domain.PricingSettings{
		domain.SettingGlobalDiscountPercent: decimal.NewFromInt(30),
		"fixed_price_cambio_notas":          decimal.NewFromInt(320),
	}

	t.Run("CatalogDiscountUsesGlobalPercent", func(t *testing.T) {
		catalog := new(MockCatalogReader)
		settingsReader := new(MockSettingsReader)
		catalog.On("GetActive", ctx, "taxi").Return(&domain.CatalogEntry{Key: "taxi", PricingType: domain.PricingTypeDiscount, Active: true}, nil)
		settingsReader.On("Settings", ctx).Return(settings, nil)

		r := NewPricingResolver(catalog, settingsReader, testDefaults(), testLogger())
		q, err := r.ResolvePrice(ctx, "taxi", decimal.RequireFromString("50.00"))
		require.NoError(t, err)
		assertQuote(t, q, "50.00", "15.00", "35.00")
		assert.Equal(t, StrategyCatalogDiscount, q.Strategy)
	})

	t.Run("CatalogDiscountOverride", func(t *testing.T) {
		catalog := new(MockCatalogReader)
		settingsReader := new(MockSettingsReader)
		catalog.On("GetActive", ctx, "pago-luz").Return(&domain.CatalogEntry{
			Key: "pago-luz", PricingType: domain.PricingTypeDiscount, DiscountPercent: dptr("12.5"), Active: true,
		}, nil)

		r := NewPricingResolver(catalog, settingsReader, testDefaults(), testLogger())
		q, err := r.ResolvePrice(ctx, "pago-luz", decimal.RequireFromString("80.10"))
		require.NoError(t, err)
		assertQuote(t, q, "80.10", "10.01", "70.09") // 10.0125 -> 10.01
		settingsReader.AssertNotCalled(t, "Settings", mock.Anything)
	})

	t.Run("CatalogFixedIgnoresRawPrice", func(t *testing.T) {
		catalog := new(MockCatalogReader)
		settingsReader := new(MockSettingsReader)
		fields := []domain.RequiredField{{Key: "codigo", Label: "Código", Type: "text", Required: true}}
		catalog.On("GetActive", ctx, "cambio-notas").Return(&domain.CatalogEntry{
			Key: "cambio-notas", PricingType: domain.PricingTypeFixed, FixedPrice: dptr("350.00"), RequiredFields: fields, Active: true,
		}, nil)

		r := NewPricingResolver(catalog, settingsReader, testDefaults(), testLogger())
		for _, raw := range []string{"0", "1", "9999.99"} {
			q, err := r.ResolvePrice(ctx, "cambio-notas", decimal.RequireFromString(raw))
			require.NoError(t, err)
			assertQuote(t, q, "350", "0", "350")
			assert.Equal(t, StrategyCatalogFixed, q.Strategy)
			assert.Equal(t, fields, q.RequiredFields)
		}
	})

	t.Run("LegacyFixedUsesSetting", func(t *testing.T) {
		catalog := new(MockCatalogReader)
		settingsReader := new(MockSettingsReader)
		catalog.On("GetActive", ctx, "cambio-notas").Return(nil, domain.ErrServiceNotFound)
		settingsReader.On("Settings", ctx).Return(settings, nil)

		r := NewPricingResolver(catalog, settingsReader, testDefaults(), testLogger())
		q, err := r.ResolvePrice(ctx, "cambio-notas", decimal.NewFromInt(10))
		require.NoError(t, err)
		assertQuote(t, q, "320", "0", "320")
		assert.Equal(t, StrategyLegacyFixed, q.Strategy)
	})

	t.Run("LegacyDiscountForUnknownKey", func(t *testing.T) {
		catalog := new(MockCatalogReader)
		settingsReader := new(MockSettingsReader)
		catalog.On("GetActive", ctx, "vuelos-bus").Return(nil, domain.ErrServiceNotFound)
		settingsReader.On("Settings", ctx).Return(domain.PricingSettings{domain.SettingGlobalDiscountPercent: decimal.NewFromInt(20)}, nil)

		r := NewPricingResolver(catalog, settingsReader, testDefaults(), testLogger())
		q, err := r.ResolvePrice(ctx, "vuelos-bus", decimal.RequireFromString("120.555"))
		require.NoError(t, err)
		assertQuote(t, q, "120.56", "24.11", "96.45")
		assert.Equal(t, StrategyLegacyDiscount, q.Strategy)
	})

	t.Run("StoresUnreachableFallBackToHardCodedDefaults", func(t *testing.T) {
		catalog := new(MockCatalogReader)
		settingsReader := new(MockSettingsReader)
		catalog.On("GetActive", ctx, "taxi").Return(nil, errors.New("dial tcp: connection refused"))
		settingsReader.On("Settings", ctx).Return(nil, errors.New("dial tcp: connection refused"))

		r := NewPricingResolver(catalog, settingsReader, testDefaults(), testLogger())
		q, err := r.ResolvePrice(ctx, "taxi", decimal.NewFromInt(100))
		require.NoError(t, err)
		assertQuote(t, q, "100", "30", "70")
		assert.Equal(t, StrategyLegacyDiscount, q.Strategy)
	})

	t.Run("LegacyFixedFallsBackTo350", func(t *testing.T) {
		catalog := new(MockCatalogReader)
		settingsReader := new(MockSettingsReader)
		catalog.On("GetActive", ctx, "cambio-notas").Return(nil, errors.New("timeout"))
		settingsReader.On("Settings", ctx).Return(domain.PricingSettings{}, nil)

		r := NewPricingResolver(catalog, settingsReader, testDefaults(), testLogger())
		q, err := r.ResolvePrice(ctx, "cambio-notas", decimal.Zero)
		require.NoError(t, err)
		assertQuote(t, q, "350", "0", "350")
	})

	t.Run("DiscountRejectsNonPositiveRaw", func(t *testing.T) {
		catalog := new(MockCatalogReader)
		settingsReader := new(MockSettingsReader)
		catalog.On("GetActive", ctx, "taxi").Return(nil, domain.ErrServiceNotFound)
		settingsReader.On("Settings", ctx).Return(settings, nil)

		r := NewPricingResolver(catalog, settingsReader, testDefaults(), testLogger())
		_, err := r.ResolvePrice(ctx, "taxi", decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = r.ResolvePrice(ctx, "taxi", decimal.NewFromInt(-5))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("CatalogOutageKeepsLastKnownFixedPrice", func(t *testing.T) {
		catalog := new(MockCatalogReader)
		settingsReader := new(MockSettingsReader)
		catalog.On("GetActive", ctx, "recarga-gas").Return(&domain.CatalogEntry{
			Key: "recarga-gas", PricingType: domain.PricingTypeFixed, FixedPrice: dptr("45.00"), Active: true,
		}, nil).Once()
		catalog.On("GetActive", ctx, "recarga-gas").Return(nil, errors.New("dial tcp: connection refused"))

		r := NewPricingResolver(catalog, settingsReader, testDefaults(), testLogger())
		q, err := r.ResolvePrice(ctx, "recarga-gas", decimal.Zero)
		require.NoError(t, err)
		assertQuote(t, q, "45", "0", "45")

		q, err = r.ResolvePrice(ctx, "recarga-gas", decimal.Zero)
		require.NoError(t, err)
		assertQuote(t, q, "45", "0", "45")
		assert.Equal(t, StrategyCatalogFixed, q.Strategy)
		catalog.AssertNumberOfCalls(t, "GetActive", 2)
		settingsReader.AssertNotCalled(t, "Settings", mock.Anything)
	})

	t.Run("DeactivatedServiceForgetsLastKnownEntry", func(t *testing.T) {
		catalog := new(MockCatalogReader)
		settingsReader := new(MockSettingsReader)
		catalog.On("GetActive", ctx, "recarga-gas").Return(&domain.CatalogEntry{
			Key: "recarga-gas", PricingType: domain.PricingTypeFixed, FixedPrice: dptr("45.00"), Active: true,
		}, nil).Once()
		catalog.On("GetActive", ctx, "recarga-gas").Return(nil, domain.ErrServiceNotFound).Once()
		catalog.On("GetActive", ctx, "recarga-gas").Return(nil, errors.New("dial tcp: connection refused"))
		settingsReader.On("Settings", ctx).Return(settings, nil)

		r := NewPricingResolver(catalog, settingsReader, testDefaults(), testLogger())
		_, err := r.ResolvePrice(ctx, "recarga-gas", decimal.Zero)
		require.NoError(t, err)
		_, err = r.ResolvePrice(ctx, "recarga-gas", decimal.NewFromInt(10))
		require.NoError(t, err)

		q, err := r.ResolvePrice(ctx, "recarga-gas", decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.Equal(t, StrategyLegacyDiscount, q.Strategy)
		assertQuote(t, q, "10", "3", "7")
	})
}

func TestPricingStrategy_ApplyClampsPercent(t *testing.T) {
	q, err := PricingStrategy{Kind: StrategyLegacyDiscount, DiscountPercent: decimal.NewFromInt(150)}.Apply(decimal.NewFromInt(40))
	require.NoError(t, err)
	assertQuote(t, q, "40", "40", "0")

	q, err = PricingStrategy{Kind: StrategyCatalogDiscount, DiscountPercent: decimal.NewFromInt(-10)}.Apply(decimal.NewFromInt(40))
	require.NoError(t, err)
	assertQuote(t, q, "40", "0", "40")
}

func TestPricingStrategy_ApplyInvariantHolds(t *testing.T) {
	s := PricingStrategy{Kind: StrategyLegacyDiscount, DiscountPercent: decimal.RequireFromString("33.33")}
	for _, raw := range []string{"0.01", "0.05", "1.115", "19.99", "250.005", "12345.678"} {
		q, err := s.Apply(decimal.RequireFromString(raw))
		require.NoError(t, err)
		assert.True(t, q.Final.Equal(q.Original.Sub(q.Discount)), raw)
		assert.False(t, q.Final.IsNegative(), raw)
		assert.False(t, q.Discount.IsNegative(), raw)
		assert.LessOrEqual(t, q.Original.Exponent(), int32(0))
		assert.True(t, q.Original.Equal(q.Original.Round(2)), raw)
	}
}
