package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/catalogsync/indexer/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateSource loads conversion rates, typically from directory_currency_rate
type RateSource interface {
	GetRate(ctx context.Context, from, to valueobject.Currency) (decimal.Decimal, error)
}

// BaseCurrencyProvider resolves a store's base currency
type BaseCurrencyProvider interface {
	GetBaseCurrency(ctx context.Context, storeID int64) (valueobject.Currency, error)
}

// Converter converts, rounds and formats store prices.
// It implements pricing.CurrencyConverter.
type Converter struct {
	stores    BaseCurrencyProvider
	rates     RateSource
	cache     cache.RateCache
	ttl       time.Duration
	formatter *Formatter
	logger    *zap.Logger
}

// NewConverter creates a converter; rates are cached for ttl
func NewConverter(stores BaseCurrencyProvider, rates RateSource, rateCache cache.RateCache, ttl time.Duration, logger *zap.Logger) *Converter {
	return &Converter{
		stores:    stores,
		rates:     rates,
		cache:     rateCache,
		ttl:       ttl,
		formatter: NewFormatter(),
		logger:    logger,
	}
}

// Convert converts a base-currency amount of the store into to.
// Converting into the base currency returns the amount unchanged.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, storeID int64, to valueobject.Currency) (decimal.Decimal, error) {
	base, err := c.stores.GetBaseCurrency(ctx, storeID)
	if err != nil {
		return decimal.Zero, err
	}
	if base == to {
		return amount, nil
	}

	rate, err := c.rate(ctx, base, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

func (c *Converter) rate(ctx context.Context, from, to valueobject.Currency) (decimal.Decimal, error) {
	if rate, ok, err := c.cache.Get(ctx, from, to); err != nil {
		c.logger.Warn("rate cache read failed", zap.String("from", from.String()), zap.String("to", to.String()), zap.Error(err))
	} else if ok {
		return rate, nil
	}

	rate, err := c.rates.GetRate(ctx, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate %s->%s: %w", from, to, err)
	}
	if err := c.cache.Set(ctx, from, to, rate, c.ttl); err != nil {
		c.logger.Warn("rate cache write failed", zap.Error(err))
	}
	return rate, nil
}

// Round rounds to display precision
func (c *Converter) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(valueobject.DisplayPrecision)
}

// Format renders amount for display in the given locale
func (c *Converter) Format(amount decimal.Decimal, cur valueobject.Currency, locale string) (string, error) {
	m, err := valueobject.NewMoney(amount, cur)
	if err != nil {
		return "", err
	}
	return c.formatter.Format(m, locale)
}
