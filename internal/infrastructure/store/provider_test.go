package store

import (
	"context"
	"testing"

	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/catalogsync/indexer/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores() []config.StoreConfig {
	return []config.StoreConfig{
		{ID: 2, WebsiteID: 1, Code: "fr", BaseCurrency: "usd", Currencies: []string{"usd", "eur"}, Locale: "fr_FR"},
		{ID: 1, WebsiteID: 1, Code: "default", BaseCurrency: "USD", Currencies: []string{"USD"}, Locale: "en_US"},
	}
}

func TestConfigProvider(t *testing.T) {
	ctx := context.Background()
	p, err := NewConfigProvider(testStores(), config.PricingConfig{CustomerGroupsEnabled: true})
	require.NoError(t, err)

	base, err := p.GetBaseCurrency(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, valueobject.USD, base)

	currencies, err := p.GetEnabledCurrencies(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []valueobject.Currency{valueobject.USD, valueobject.EUR}, currencies)

	locale, err := p.GetLocale(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "fr_FR", locale)

	enabled, err := p.IsCustomerGroupPricingEnabled(ctx, 1)
	require.NoError(t, err)
	assert.True(t, enabled)

	website, err := p.WebsiteID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), website)

	assert.Equal(t, []int64{1, 2}, p.StoreIDs())
}

func TestConfigProvider_ReturnsCopies(t *testing.T) {
	p, err := NewConfigProvider(testStores(), config.PricingConfig{})
	require.NoError(t, err)

	first, err := p.GetEnabledCurrencies(context.Background(), 2)
	require.NoError(t, err)
	first[0] = valueobject.JPY

	second, err := p.GetEnabledCurrencies(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, valueobject.USD, second[0])
}

func TestConfigProvider_UnknownStore(t *testing.T) {
	p, err := NewConfigProvider(testStores(), config.PricingConfig{})
	require.NoError(t, err)

	_, err = p.GetBaseCurrency(context.Background(), 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = p.IsCustomerGroupPricingEnabled(context.Background(), 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNewConfigProvider_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		stores []config.StoreConfig
	}{
		{"bad base currency", []config.StoreConfig{{ID: 1, Code: "x", BaseCurrency: "XXQ", Currencies: []string{"USD"}}}},
		{"bad enabled currency", []config.StoreConfig{{ID: 1, Code: "x", BaseCurrency: "USD", Currencies: []string{"USD", "ZZZ1"}}}},
		{"base not enabled", []config.StoreConfig{{ID: 1, Code: "x", BaseCurrency: "USD", Currencies: []string{"EUR"}}}},
		{"duplicate id", []config.StoreConfig{
			{ID: 1, Code: "a", BaseCurrency: "USD", Currencies: []string{"USD"}},
			{ID: 1, Code: "b", BaseCurrency: "USD", Currencies: []string{"USD"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigProvider(tt.stores, config.PricingConfig{})
			assert.ErrorIs(t, err, shared.ErrConfiguration)
		})
	}
}
