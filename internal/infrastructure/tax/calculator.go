// Package tax applies configured tax rates to catalog prices for display.
package tax

import (
	"context"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/catalogsync/indexer/internal/infrastructure/config"
	"github.com/shopspring/decimal"
)

// Calculator implements pricing.TaxCalculator with rates keyed by product tax class
type Calculator struct {
	mode           pricing.TaxDisplayMode
	includesTax    bool
	defaultRate    decimal.Decimal
	ratesByClass   map[int64]decimal.Decimal
	displayByStore map[int64]pricing.TaxDisplayMode
}

// NewCalculator builds a calculator from the pricing configuration and the
// per-store display overrides
func NewCalculator(cfg config.PricingConfig, stores []config.StoreConfig) (*Calculator, error) {
	mode, err := pricing.ParseTaxDisplayMode(cfg.TaxDisplay)
	if err != nil {
		return nil, err
	}
	if cfg.DefaultTaxRate.IsNegative() {
		return nil, shared.NewConfigurationError("default tax rate %s is negative", cfg.DefaultTaxRate)
	}
	rates := make(map[int64]decimal.Decimal, len(cfg.TaxRates))
	for class, rate := range cfg.TaxRates {
		if rate.IsNegative() {
			return nil, shared.NewConfigurationError("tax rate for class %d is negative", class)
		}
		rates[class] = rate
	}
	byStore := make(map[int64]pricing.TaxDisplayMode)
	for _, s := range stores {
		if s.TaxDisplay == "" {
			continue
		}
		storeMode, err := pricing.ParseTaxDisplayMode(s.TaxDisplay)
		if err != nil {
			return nil, err
		}
		byStore[s.ID] = storeMode
	}
	return &Calculator{
		mode:           mode,
		includesTax:    cfg.CatalogPricesIncludeTax,
		defaultRate:    cfg.DefaultTaxRate,
		ratesByClass:   rates,
		displayByStore: byStore,
	}, nil
}

// Rate returns the tax rate of the product's tax class, or the default rate
func (c *Calculator) Rate(product *pricing.Product) decimal.Decimal {
	if rate, ok := c.ratesByClass[product.TaxClassID]; ok {
		return rate
	}
	return c.defaultRate
}

// ComputeDisplayPrice returns amount as shown with or without tax.
// Catalog prices entered with tax are divided out for the excluding view;
// prices entered without tax are multiplied up for the including view.
func (c *Calculator) ComputeDisplayPrice(ctx context.Context, product *pricing.Product, amount decimal.Decimal, includeTax bool) (decimal.Decimal, error) {
	if product == nil {
		return decimal.Zero, shared.NewDataError("tax: product is nil")
	}
	rate := c.Rate(product)
	if rate.IsZero() || includeTax == c.includesTax {
		return amount, nil
	}
	factor := decimal.NewFromInt(1).Add(rate)
	if includeTax {
		return amount.Mul(factor), nil
	}
	return amount.DivRound(factor, 8), nil
}

// GetDisplayMode returns the catalog price display mode of the store
func (c *Calculator) GetDisplayMode(ctx context.Context, storeID int64) (pricing.TaxDisplayMode, error) {
	if mode, ok := c.displayByStore[storeID]; ok {
		return mode, nil
	}
	return c.mode, nil
}
