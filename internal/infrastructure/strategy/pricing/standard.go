package pricing

import (
	"context"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared/strategy"
)

// StandardPricingStrategy proposes the product's base price
type StandardPricingStrategy struct {
	strategy.Descriptor
}

// NewStandardPricingStrategy creates a new standard pricing strategy
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{
		Descriptor: strategy.Describe("standard", "Base price without discounts"),
	}
}

// Candidate returns the base price
func (s *StandardPricingStrategy) Candidate(ctx context.Context, pricingCtx strategy.PricingContext) (pricing.OptionalAmount, error) {
	return pricing.Some(pricingCtx.Product.Price), nil
}
