package pricing

import (
	"context"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SubProductRangeContributor adds the price range of a composite product's
// variants to each row. Products without sub-products are left alone.
type SubProductRangeContributor struct {
	tax      pricing.TaxCalculator
	currency pricing.CurrencyConverter
}

// NewSubProductRangeContributor creates the contributor
func NewSubProductRangeContributor(tax pricing.TaxCalculator, currency pricing.CurrencyConverter) *SubProductRangeContributor {
	return &SubProductRangeContributor{tax: tax, currency: currency}
}

// Contribute implements pricing.AdditionalDataContributor
func (c *SubProductRangeContributor) Contribute(ctx context.Context, in pricing.Contribution) error {
	var prices []decimal.Decimal
	for i := range in.SubProducts {
		sub := &in.SubProducts[i]
		if !sub.FinalPrice.IsPositive() {
			continue
		}
		amount := sub.FinalPrice
		if !in.Store.IsBase(in.Currency) {
			converted, err := c.currency.Convert(ctx, amount, in.Store.StoreID, in.Currency)
			if err != nil {
				return shared.NewCollaboratorError("currency conversion", err)
			}
			amount = c.currency.Round(converted)
		}
		taxed, err := c.tax.ComputeDisplayPrice(ctx, sub, amount, in.Field.WithTax())
		if err != nil {
			return shared.NewCollaboratorError("tax display price", err)
		}
		prices = append(prices, c.currency.Round(taxed))
	}
	if len(prices) == 0 {
		return nil
	}

	lo, hi := decimal.Min(prices[0], prices[1:]...), decimal.Max(prices[0], prices[1:]...)
	hiFormatted, err := c.format(in, hi)
	if err != nil {
		return err
	}
	in.Row.Set("default_max", hi.InexactFloat64())
	in.Row.Set("default_max_formatted", hiFormatted)

	if !lo.LessThan(hi) {
		return nil
	}
	loFormatted, err := c.format(in, lo)
	if err != nil {
		return err
	}
	in.Row.Default = lo
	in.Row.DefaultFormatted = loFormatted + " - " + hiFormatted
	return nil
}

func (c *SubProductRangeContributor) format(in pricing.Contribution, amount decimal.Decimal) (string, error) {
	s, err := c.currency.Format(amount, in.Currency, in.Store.Locale)
	if err != nil {
		return "", shared.NewCollaboratorError("price formatting", err)
	}
	return s, nil
}
