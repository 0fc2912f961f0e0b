package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type fakeStores struct {
	base         valueobject.Currency
	currencies   []valueobject.Currency
	locale       string
	groupPricing bool
	err          error
}

func (f *fakeStores) GetBaseCurrency(ctx context.Context, storeID int64) (valueobject.Currency, error) {
	return f.base, f.err
}

func (f *fakeStores) GetEnabledCurrencies(ctx context.Context, storeID int64) ([]valueobject.Currency, error) {
	return f.currencies, f.err
}

func (f *fakeStores) GetLocale(ctx context.Context, storeID int64) (string, error) {
	return f.locale, f.err
}

func (f *fakeStores) IsCustomerGroupPricingEnabled(ctx context.Context, storeID int64) (bool, error) {
	return f.groupPricing, f.err
}

// MockGroupDirectory implements pricing.CustomerGroupDirectory for testing
type MockGroupDirectory struct {
	mock.Mock
}

func (m *MockGroupDirectory) ListGroups(ctx context.Context, includeDisabled bool) ([]pricing.CustomerGroup, error) {
	args := m.Called(ctx, includeDisabled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pricing.CustomerGroup), args.Error(1)
}

func (m *MockGroupDirectory) GetExcludedWebsitesForGroup(ctx context.Context, groupID pricing.GroupID) ([]int64, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockTierProvider implements pricing.TierPriceProvider for testing
type MockTierProvider struct {
	mock.Mock
}

func (m *MockTierProvider) GetTierPrices(ctx context.Context, sku string, groupID pricing.GroupID) ([]pricing.TierPrice, error) {
	args := m.Called(ctx, sku, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pricing.TierPrice), args.Error(1)
}

// fakeTax applies a flat rate to tax-inclusive displays
type fakeTax struct {
	mode pricing.TaxDisplayMode
	rate decimal.Decimal
	err  error
}

func (f *fakeTax) ComputeDisplayPrice(ctx context.Context, product *pricing.Product, amount decimal.Decimal, includeTax bool) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	if !includeTax {
		return amount, nil
	}
	return amount.Mul(decimal.NewFromInt(1).Add(f.rate)), nil
}

func (f *fakeTax) GetDisplayMode(ctx context.Context, storeID int64) (pricing.TaxDisplayMode, error) {
	return f.mode, nil
}

type fakeRules struct {
	mu     sync.Mutex
	prices map[pricing.GroupID]decimal.Decimal
	asOf   []time.Time
}

func (f *fakeRules) GetRulePrice(ctx context.Context, asOf time.Time, websiteID int64, groupID pricing.GroupID, productID int64) (pricing.OptionalAmount, error) {
	f.mu.Lock()
	f.asOf = append(f.asOf, asOf)
	f.mu.Unlock()
	if v, ok := f.prices[groupID]; ok {
		return pricing.Some(v), nil
	}
	return pricing.None(), nil
}

type fakeEngine struct {
	prices map[pricing.GroupID]decimal.Decimal
}

func (f *fakeEngine) EvaluateFinalPrice(ctx context.Context, product *pricing.Product, groupID pricing.GroupID, websiteID int64) (pricing.OptionalAmount, error) {
	if v, ok := f.prices[groupID]; ok {
		return pricing.Some(v), nil
	}
	return pricing.None(), nil
}

// fakeCurrency converts with fixed rates and formats as "<symbol><amount>"
type fakeCurrency struct {
	rates map[valueobject.Currency]decimal.Decimal
	err   error
}

func (f *fakeCurrency) Convert(ctx context.Context, amount decimal.Decimal, storeID int64, to valueobject.Currency) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	rate, ok := f.rates[to]
	if !ok {
		return amount, nil
	}
	return amount.Mul(rate), nil
}

func (f *fakeCurrency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

func (f *fakeCurrency) Format(amount decimal.Decimal, currency valueobject.Currency, locale string) (string, error) {
	symbol := map[valueobject.Currency]string{valueobject.USD: "$", valueobject.EUR: "€"}[currency]
	return symbol + amount.StringFixed(2), nil
}
