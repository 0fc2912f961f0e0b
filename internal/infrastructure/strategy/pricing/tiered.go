package pricing

import (
	"context"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// TieredPricingStrategy proposes the tier price that applies to a single
// unit, i.e. tiers with a quantity of at most one. Larger quantity breaks
// do not lower the displayed final price.
type TieredPricingStrategy struct {
	strategy.Descriptor
	tiers pricing.TierPriceProvider
}

// NewTieredPricingStrategy creates a tier strategy. Products that carry
// batch-loaded tier records are priced from those; otherwise the provider is asked.
func NewTieredPricingStrategy(tiers pricing.TierPriceProvider) *TieredPricingStrategy {
	return &TieredPricingStrategy{
		Descriptor: strategy.Describe("tiered", "Single-unit tier price for the customer group"),
		tiers:      tiers,
	}
}

// Candidate returns the lowest single-unit tier price of the group or of all groups
func (s *TieredPricingStrategy) Candidate(ctx context.Context, pricingCtx strategy.PricingContext) (pricing.OptionalAmount, error) {
	records := pricingCtx.Product.TierPrices
	if len(records) == 0 {
		var err error
		records, err = s.tiers.GetTierPrices(ctx, pricingCtx.Product.SKU, pricingCtx.GroupID)
		if err != nil {
			return pricing.None(), err
		}
	}

	one := decimal.NewFromInt(1)
	best := pricing.None()
	for _, rec := range records {
		if rec.GroupID != pricingCtx.GroupID && !rec.GroupID.IsWildcard() {
			continue
		}
		if rec.Qty.GreaterThan(one) {
			continue
		}
		best = best.Min(pricing.Some(rec.Value))
	}
	return best, nil
}
