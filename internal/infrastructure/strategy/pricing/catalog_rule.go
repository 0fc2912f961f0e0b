package pricing

import (
	"context"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared/strategy"
)

// CatalogRulePricingStrategy proposes the group's catalog rule price
type CatalogRulePricingStrategy struct {
	strategy.Descriptor
	rules pricing.CatalogRuleEngine
}

// NewCatalogRulePricingStrategy creates a strategy backed by a rule engine
func NewCatalogRulePricingStrategy(rules pricing.CatalogRuleEngine) *CatalogRulePricingStrategy {
	return &CatalogRulePricingStrategy{
		Descriptor: strategy.Describe("catalog_rule", "Catalog price rule for the customer group and website"),
		rules:      rules,
	}
}

// Candidate returns the rule price for the group, if any
func (s *CatalogRulePricingStrategy) Candidate(ctx context.Context, pricingCtx strategy.PricingContext) (pricing.OptionalAmount, error) {
	return s.rules.GetRulePrice(ctx, pricingCtx.AsOf, pricingCtx.WebsiteID, pricingCtx.GroupID, pricingCtx.Product.ID)
}
