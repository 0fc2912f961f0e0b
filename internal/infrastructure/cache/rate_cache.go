package cache

import (
	"context"
	"time"

	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RateCache caches currency conversion rates between lookups
type RateCache interface {
	// Get returns a cached rate and whether it was found
	Get(ctx context.Context, from, to valueobject.Currency) (decimal.Decimal, bool, error)
	Set(ctx context.Context, from, to valueobject.Currency, rate decimal.Decimal, ttl time.Duration) error
	Close() error
}

func rateKey(from, to valueobject.Currency) string {
	return from.String() + ":" + to.String()
}
