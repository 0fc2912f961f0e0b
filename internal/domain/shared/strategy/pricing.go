package strategy

import (
	"context"
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
)

// PricingContext is what a pricing strategy sees when proposing a price
type PricingContext struct {
	Product   *pricing.Product
	GroupID   pricing.GroupID
	WebsiteID int64
	AsOf      time.Time
}

// PricingStrategy proposes one candidate final price, e.g. the base price,
// an active special price or a catalog rule price. The final price is the
// lowest positive candidate.
type PricingStrategy interface {
	Strategy
	Candidate(ctx context.Context, pricingCtx PricingContext) (pricing.OptionalAmount, error)
}
