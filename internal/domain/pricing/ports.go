package pricing

import (
	"context"
	"time"

	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// StoreContextProvider exposes the store view settings the resolver needs
type StoreContextProvider interface {
	GetBaseCurrency(ctx context.Context, storeID int64) (valueobject.Currency, error)
	GetEnabledCurrencies(ctx context.Context, storeID int64) ([]valueobject.Currency, error)
	GetLocale(ctx context.Context, storeID int64) (string, error)
	IsCustomerGroupPricingEnabled(ctx context.Context, storeID int64) (bool, error)
}

// CustomerGroupDirectory enumerates customer groups and their website exclusions
type CustomerGroupDirectory interface {
	ListGroups(ctx context.Context, includeDisabled bool) ([]CustomerGroup, error)
	GetExcludedWebsitesForGroup(ctx context.Context, groupID GroupID) ([]int64, error)
}

// TaxCalculator applies the tax display rules to raw amounts
type TaxCalculator interface {
	ComputeDisplayPrice(ctx context.Context, product *Product, amount decimal.Decimal, includeTax bool) (decimal.Decimal, error)
	GetDisplayMode(ctx context.Context, storeID int64) (TaxDisplayMode, error)
}

// CatalogRuleEngine returns the best catalog-rule price for a product
type CatalogRuleEngine interface {
	GetRulePrice(ctx context.Context, asOf time.Time, websiteID int64, groupID GroupID, productID int64) (OptionalAmount, error)
}

// TierPriceProvider loads configured tier prices for one group
type TierPriceProvider interface {
	GetTierPrices(ctx context.Context, sku string, groupID GroupID) ([]TierPrice, error)
}

// CurrencyConverter converts, rounds and formats amounts.
// Converting into the store's base currency is the identity.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, storeID int64, to valueobject.Currency) (decimal.Decimal, error)
	Round(amount decimal.Decimal) decimal.Decimal
	Format(amount decimal.Decimal, currency valueobject.Currency, locale string) (string, error)
}

// PriceEngine evaluates the final price of a product for a group and website
// without touching the product.
type PriceEngine interface {
	EvaluateFinalPrice(ctx context.Context, product *Product, groupID GroupID, websiteID int64) (OptionalAmount, error)
}

// StoreView is the resolved store context of one resolution call
type StoreView struct {
	StoreID      int64
	WebsiteID    int64
	BaseCurrency valueobject.Currency
	Currencies   []valueobject.Currency
	Locale       string
	GroupPricing bool
	Groups       []CustomerGroup
}

// IsBase reports whether cur is the store's base currency
func (s StoreView) IsBase(cur valueobject.Currency) bool {
	return cur == s.BaseCurrency
}

// Contribution is what an AdditionalDataContributor receives per field and currency
type Contribution struct {
	Store       StoreView
	Product     *Product
	SubProducts []Product
	Field       PriceField
	Currency    valueobject.Currency
	Row         *PriceRow
}

// AdditionalDataContributor adds extra attributes to a row after the base
// price has been resolved. It is invoked once per field and currency.
type AdditionalDataContributor interface {
	Contribute(ctx context.Context, c Contribution) error
}
