package strategy

import (
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	pricingstrategy "github.com/catalogsync/indexer/internal/infrastructure/strategy/pricing"
)

// DefaultRegistry registers the base price, special price, catalog rule
// and single-unit tier price strategies.
func DefaultRegistry(rules pricing.CatalogRuleEngine, tiers pricing.TierPriceProvider) (*Registry, error) {
	r := NewRegistry()
	err := r.Register(
		pricingstrategy.NewStandardPricingStrategy(),
		pricingstrategy.NewSpecialPricingStrategy(),
		pricingstrategy.NewCatalogRulePricingStrategy(rules),
		pricingstrategy.NewTieredPricingStrategy(tiers),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// NewFinalPriceEngine builds a price engine over the selected strategies
func NewFinalPriceEngine(r *Registry, now func() time.Time, names ...string) (*pricingstrategy.FinalPriceEngine, error) {
	strategies, err := r.Select(names...)
	if err != nil {
		return nil, err
	}
	return pricingstrategy.NewFinalPriceEngine(now, strategies...), nil
}
