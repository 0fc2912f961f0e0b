package pricing

import (
	"context"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared/strategy"
)

// SpecialPricingStrategy proposes the configured special price while its
// date window is open
type SpecialPricingStrategy struct {
	strategy.Descriptor
}

// NewSpecialPricingStrategy creates a new special price strategy
func NewSpecialPricingStrategy() *SpecialPricingStrategy {
	return &SpecialPricingStrategy{
		Descriptor: strategy.Describe("special", "Configured special price within its date window"),
	}
}

// Candidate returns the special price when active at pricingCtx.AsOf
func (s *SpecialPricingStrategy) Candidate(ctx context.Context, pricingCtx strategy.PricingContext) (pricing.OptionalAmount, error) {
	p := pricingCtx.Product
	if !p.SpecialPriceActive(pricingCtx.AsOf) {
		return pricing.None(), nil
	}
	return pricing.Some(*p.SpecialPrice), nil
}
