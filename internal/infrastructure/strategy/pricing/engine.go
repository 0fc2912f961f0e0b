package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared/strategy"
)

// FinalPriceEngine evaluates a product's final price as the lowest positive
// candidate proposed by its strategies. It never modifies the product.
type FinalPriceEngine struct {
	strategies []strategy.PricingStrategy
	now        func() time.Time
}

// NewFinalPriceEngine creates an engine over the given strategies
func NewFinalPriceEngine(now func() time.Time, strategies ...strategy.PricingStrategy) *FinalPriceEngine {
	if now == nil {
		now = time.Now
	}
	return &FinalPriceEngine{strategies: strategies, now: now}
}

// EvaluateFinalPrice implements pricing.PriceEngine
func (e *FinalPriceEngine) EvaluateFinalPrice(
	ctx context.Context,
	product *pricing.Product,
	groupID pricing.GroupID,
	websiteID int64,
) (pricing.OptionalAmount, error) {
	pricingCtx := strategy.PricingContext{
		Product:   product,
		GroupID:   groupID,
		WebsiteID: websiteID,
		AsOf:      e.now(),
	}

	best := pricing.None()
	for _, s := range e.strategies {
		candidate, err := s.Candidate(ctx, pricingCtx)
		if err != nil {
			return pricing.None(), fmt.Errorf("%s pricing strategy: %w", s.Name(), err)
		}
		if v, ok := candidate.Value(); ok && v.IsPositive() {
			best = best.Min(candidate)
		}
	}
	return best, nil
}
