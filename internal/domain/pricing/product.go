package pricing

import (
	"errors"
	"time"

	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TierPrice is one configured quantity-break price
type TierPrice struct {
	GroupID GroupID         `validate:"gte=-1"`
	Qty     decimal.Decimal `validate:"-"`
	Value   decimal.Decimal `validate:"-"`
}

// Product is the priced catalog item as loaded for one store view
type Product struct {
	ID         int64  `validate:"gt=0"`
	SKU        string `validate:"required,max=64"`
	StoreID    int64  `validate:"gte=0"`
	WebsiteID  int64  `validate:"gte=0"`
	TaxClassID int64  `validate:"gte=0"`

	// Price is the raw base price in the store's base currency.
	Price decimal.Decimal `validate:"-"`
	// FinalPrice is the host's already-resolved final price for the
	// default context; it may embed a rule or configured special price.
	FinalPrice decimal.Decimal `validate:"-"`

	SpecialPrice    *decimal.Decimal `validate:"-"`
	SpecialFromDate *time.Time
	SpecialToDate   *time.Time

	// TierPrices holds batch-loaded tier records. When empty the tier
	// provider is queried per group.
	TierPrices []TierPrice `validate:"dive"`
}

// Validate checks identity fields and rejects malformed price records
func (p *Product) Validate() error {
	if p == nil {
		return shared.NewDataError("product is nil")
	}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return shared.NewDataError("product %q: field %s failed %s", p.SKU, verrs[0].Namespace(), verrs[0].Tag())
		}
		return shared.NewDataError("product %q: %v", p.SKU, err)
	}
	if p.Price.IsNegative() {
		return shared.NewDataError("product %q: negative price %s", p.SKU, p.Price)
	}
	if p.SpecialPrice != nil && p.SpecialPrice.IsNegative() {
		return shared.NewDataError("product %q: negative special price %s", p.SKU, p.SpecialPrice)
	}
	if p.SpecialFromDate != nil && p.SpecialToDate != nil && p.SpecialToDate.Before(*p.SpecialFromDate) {
		return shared.NewDataError("product %q: special price ends before it starts", p.SKU)
	}
	for _, tp := range p.TierPrices {
		if err := tp.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects negative tier values and quantities
func (t TierPrice) Validate() error {
	if err := validate.Struct(t); err != nil {
		return shared.NewDataError("tier price for group %d: %v", t.GroupID, err)
	}
	if t.Value.IsNegative() {
		return shared.NewDataError("tier price for group %d: negative value %s", t.GroupID, t.Value)
	}
	if t.Qty.IsNegative() {
		return shared.NewDataError("tier price for group %d: negative quantity %s", t.GroupID, t.Qty)
	}
	return nil
}

// SpecialPriceActive reports whether the configured special price applies at t.
// Dates are inclusive day bounds.
func (p *Product) SpecialPriceActive(t time.Time) bool {
	if p.SpecialPrice == nil {
		return false
	}
	if p.SpecialFromDate != nil && t.Before(*p.SpecialFromDate) {
		return false
	}
	if p.SpecialToDate != nil && t.After(p.SpecialToDate.Add(24*time.Hour-time.Nanosecond)) {
		return false
	}
	return true
}

// DefaultFinalPrice is the lower of the base price and the special price
// active at t. It stands in for FinalPrice when no host resolved one.
func (p *Product) DefaultFinalPrice(t time.Time) decimal.Decimal {
	if !p.SpecialPriceActive(t) || !p.SpecialPrice.IsPositive() {
		return p.Price
	}
	return decimal.Min(p.Price, *p.SpecialPrice)
}

// epoch returns the unix seconds of t, nil when unset
func epoch(t *time.Time) *int64 {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Unix()
	return &s
}

// SpecialFromEpoch returns the special-from date as unix seconds
func (p *Product) SpecialFromEpoch() *int64 {
	return epoch(p.SpecialFromDate)
}

// SpecialToEpoch returns the special-to date as unix seconds
func (p *Product) SpecialToEpoch() *int64 {
	return epoch(p.SpecialToDate)
}
