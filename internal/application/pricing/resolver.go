package pricing

import (
	"context"
	"slices"
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/catalogsync/indexer/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Dependencies are the collaborators a PriceResolver consumes
type Dependencies struct {
	Stores   pricing.StoreContextProvider
	Groups   pricing.CustomerGroupDirectory
	Tax      pricing.TaxCalculator
	Rules    pricing.CatalogRuleEngine
	Tiers    pricing.TierPriceProvider
	Currency pricing.CurrencyConverter
	Engine   pricing.PriceEngine
}

// Option configures a PriceResolver
type Option func(*PriceResolver)

// WithContributors registers extensions run once per field and currency
func WithContributors(contributors ...pricing.AdditionalDataContributor) Option {
	return func(r *PriceResolver) {
		r.contributors = append(r.contributors, contributors...)
	}
}

// WithClock overrides the clock used for catalog rule lookups
func WithClock(now func() time.Time) Option {
	return func(r *PriceResolver) {
		r.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *PriceResolver) {
		r.logger = logger
	}
}

// PriceResolver computes the price payload of one catalog product for every
// enabled currency and customer group. It keeps no per-call state and is
// safe for concurrent use.
type PriceResolver struct {
	deps         Dependencies
	contributors []pricing.AdditionalDataContributor
	now          func() time.Time
	logger       *zap.Logger
}

// NewPriceResolver creates a resolver, failing when a collaborator is missing
func NewPriceResolver(deps Dependencies, opts ...Option) (*PriceResolver, error) {
	switch {
	case deps.Stores == nil:
		return nil, shared.NewConfigurationError("price resolver: store context provider is required")
	case deps.Groups == nil:
		return nil, shared.NewConfigurationError("price resolver: customer group directory is required")
	case deps.Tax == nil:
		return nil, shared.NewConfigurationError("price resolver: tax calculator is required")
	case deps.Rules == nil:
		return nil, shared.NewConfigurationError("price resolver: catalog rule engine is required")
	case deps.Tiers == nil:
		return nil, shared.NewConfigurationError("price resolver: tier price provider is required")
	case deps.Currency == nil:
		return nil, shared.NewConfigurationError("price resolver: currency converter is required")
	case deps.Engine == nil:
		return nil, shared.NewConfigurationError("price resolver: price engine is required")
	}

	r := &PriceResolver{
		deps:   deps,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ComputePriceData resolves the product's prices and merges them into a copy
// of existingCustomData. The caller's map is left untouched and nothing is
// returned when any step fails.
func (r *PriceResolver) ComputePriceData(
	ctx context.Context,
	product *pricing.Product,
	existingCustomData map[string]any,
	subProducts []pricing.Product,
) (map[string]any, error) {
	set, err := r.Resolve(ctx, product, subProducts)
	if err != nil {
		return nil, err
	}
	return set.MergeInto(existingCustomData), nil
}

// Resolve computes the typed price result set of a product
func (r *PriceResolver) Resolve(
	ctx context.Context,
	product *pricing.Product,
	subProducts []pricing.Product,
) (pricing.PriceResultSet, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "price_resolver.resolve",
		telemetry.AttrSKU.String(product.SKU),
		telemetry.AttrStoreID.Int64(product.StoreID),
	)
	defer span.End()

	set, err := r.resolve(ctx, product, subProducts)
	if err != nil {
		telemetry.RecordError(span, err)
		r.logger.Debug("price resolution failed",
			zap.String("sku", product.SKU),
			zap.Int64("store_id", product.StoreID),
			zap.Error(err),
		)
		return nil, err
	}
	return set, nil
}

// call carries everything computed once per product
type call struct {
	store   pricing.StoreView
	product *pricing.Product
	fields  []pricing.PriceField
	special pricing.GroupAmounts // raw, base currency
	tiers   pricing.GroupAmounts // raw, base currency
	final   pricing.GroupAmounts // raw, base currency; group pricing only
}

func (r *PriceResolver) resolve(
	ctx context.Context,
	product *pricing.Product,
	subProducts []pricing.Product,
) (pricing.PriceResultSet, error) {
	store, err := r.loadStore(ctx, product)
	if err != nil {
		return nil, err
	}

	mode, err := r.deps.Tax.GetDisplayMode(ctx, product.StoreID)
	if err != nil {
		return nil, shared.NewCollaboratorError("tax display mode", err)
	}
	fields, err := mode.Fields()
	if err != nil {
		return nil, err
	}

	c := &call{store: store, product: product, fields: fields}
	if c.special, err = r.rawSpecialPrices(ctx, c); err != nil {
		return nil, err
	}
	if c.tiers, err = r.rawTierPrices(ctx, c); err != nil {
		return nil, err
	}
	if store.GroupPricing {
		if c.final, err = r.rawGroupFinalPrices(ctx, c); err != nil {
			return nil, err
		}
	}

	trace.SpanFromContext(ctx).SetAttributes(
		telemetry.AttrGroupCount.Int(len(store.Groups)),
		telemetry.AttrWebsiteID.Int64(store.WebsiteID),
	)

	set := pricing.PriceResultSet{}
	for _, field := range fields {
		for _, cur := range store.Currencies {
			row := set.Row(field, cur)
			if err := r.fillRow(ctx, c, field, cur, row); err != nil {
				return nil, err
			}
			for _, contributor := range r.contributors {
				err := contributor.Contribute(ctx, pricing.Contribution{
					Store:       store,
					Product:     product,
					SubProducts: subProducts,
					Field:       field,
					Currency:    cur,
					Row:         row,
				})
				if err != nil {
					return nil, err
				}
			}
		}
	}

	r.logger.Debug("prices resolved",
		zap.String("sku", product.SKU),
		zap.Int("fields", len(fields)),
		zap.Int("currencies", len(store.Currencies)),
		zap.Int("groups", len(store.Groups)),
	)
	return set, nil
}

// loadStore resolves the store context and the customer groups to price
func (r *PriceResolver) loadStore(ctx context.Context, product *pricing.Product) (pricing.StoreView, error) {
	stores := r.deps.Stores
	view := pricing.StoreView{StoreID: product.StoreID, WebsiteID: product.WebsiteID}

	base, err := stores.GetBaseCurrency(ctx, product.StoreID)
	if err != nil {
		return view, shared.NewCollaboratorError("base currency", err)
	}
	if base == "" {
		return view, shared.NewConfigurationError("store %d has no base currency", product.StoreID)
	}
	currencies, err := stores.GetEnabledCurrencies(ctx, product.StoreID)
	if err != nil {
		return view, shared.NewCollaboratorError("enabled currencies", err)
	}
	if len(currencies) == 0 {
		return view, shared.NewConfigurationError("store %d has no enabled currencies", product.StoreID)
	}
	locale, err := stores.GetLocale(ctx, product.StoreID)
	if err != nil {
		return view, shared.NewCollaboratorError("store locale", err)
	}
	enabled, err := stores.IsCustomerGroupPricingEnabled(ctx, product.StoreID)
	if err != nil {
		return view, shared.NewCollaboratorError("customer group setting", err)
	}

	view.BaseCurrency = base
	view.Currencies = currencies
	view.Locale = locale
	view.GroupPricing = enabled

	if !enabled {
		view.Groups = []pricing.CustomerGroup{{ID: pricing.GroupNotLoggedIn}}
		return view, nil
	}

	groups, err := r.deps.Groups.ListGroups(ctx, false)
	if err != nil {
		return view, shared.NewCollaboratorError("list customer groups", err)
	}
	for _, g := range groups {
		excluded, err := r.deps.Groups.GetExcludedWebsitesForGroup(ctx, g.ID)
		if err != nil {
			return view, shared.NewCollaboratorError("group excluded websites", err)
		}
		if slices.Contains(excluded, product.WebsiteID) {
			continue
		}
		view.Groups = append(view.Groups, g)
	}
	return view, nil
}

// rawSpecialPrices picks, per group, the lowest positive of the catalog rule
// price and the product's resolved final price.
func (r *PriceResolver) rawSpecialPrices(ctx context.Context, c *call) (pricing.GroupAmounts, error) {
	asOf := r.now()
	out := make(pricing.GroupAmounts, len(c.store.Groups))
	for _, g := range c.store.Groups {
		rule, err := r.deps.Rules.GetRulePrice(ctx, asOf, c.store.WebsiteID, g.ID, c.product.ID)
		if err != nil {
			return nil, shared.NewCollaboratorError("catalog rule price", err)
		}
		candidates := []pricing.OptionalAmount{rule, pricing.Some(c.product.FinalPrice)}

		best := pricing.None()
		for _, cand := range candidates {
			if v, ok := cand.Value(); ok && v.IsPositive() {
				best = best.Min(cand)
			}
		}
		out[g.ID] = best
	}
	return out, nil
}

// rawTierPrices collapses tier records per group and applies the wildcard entry
func (r *PriceResolver) rawTierPrices(ctx context.Context, c *call) (pricing.GroupAmounts, error) {
	collapsed := make(pricing.GroupAmounts)
	collapse := func(records []pricing.TierPrice) error {
		for _, rec := range records {
			if err := rec.Validate(); err != nil {
				return err
			}
			collapsed[rec.GroupID] = collapsed.Get(rec.GroupID).Min(pricing.Some(rec.Value))
		}
		return nil
	}

	if len(c.product.TierPrices) > 0 {
		if err := collapse(c.product.TierPrices); err != nil {
			return nil, err
		}
	} else {
		for _, g := range c.store.Groups {
			records, err := r.deps.Tiers.GetTierPrices(ctx, c.product.SKU, g.ID)
			if err != nil {
				return nil, shared.NewCollaboratorError("tier prices", err)
			}
			if err := collapse(records); err != nil {
				return nil, err
			}
		}
	}

	all := collapsed.Get(pricing.GroupAll)
	out := make(pricing.GroupAmounts, len(c.store.Groups))
	for _, g := range c.store.Groups {
		effective := all.Min(collapsed.Get(g.ID))
		if effective.Present() {
			out[g.ID] = effective
		}
	}
	return out, nil
}

// rawGroupFinalPrices evaluates the price engine once per group
func (r *PriceResolver) rawGroupFinalPrices(ctx context.Context, c *call) (pricing.GroupAmounts, error) {
	out := make(pricing.GroupAmounts, len(c.store.Groups))
	for _, g := range c.store.Groups {
		v, err := r.deps.Engine.EvaluateFinalPrice(ctx, c.product, g.ID, c.store.WebsiteID)
		if err != nil {
			return nil, shared.NewCollaboratorError("final price", err)
		}
		out[g.ID] = v
	}
	return out, nil
}

// fillRow computes one field/currency row
func (r *PriceResolver) fillRow(
	ctx context.Context,
	c *call,
	field pricing.PriceField,
	cur valueobject.Currency,
	row *pricing.PriceRow,
) error {
	conv := r.deps.Currency
	withTax := field.WithTax()

	price, err := r.convert(ctx, c, c.product.Price, cur)
	if err != nil {
		return err
	}
	if price, err = r.applyTax(ctx, c, price, withTax); err != nil {
		return err
	}
	row.Default = conv.Round(price)
	if row.DefaultFormatted, err = r.format(row.Default, cur, c); err != nil {
		return err
	}

	special, err := r.displayAmounts(ctx, c, c.special, cur, withTax)
	if err != nil {
		return err
	}
	tiers, err := r.displayAmounts(ctx, c, c.tiers, cur, withTax)
	if err != nil {
		return err
	}

	if c.store.GroupPricing {
		if err := r.addGroupPrices(ctx, c, cur, withTax, row); err != nil {
			return err
		}
	}

	row.SpecialFromDate = c.product.SpecialFromEpoch()
	row.SpecialToDate = c.product.SpecialToEpoch()

	if err := r.applySpecialPrices(c, special, cur, row); err != nil {
		return err
	}
	return r.annotateTierPrices(c, tiers, cur, row)
}

// displayAmounts converts (rounding after conversion) and taxes raw group
// amounts, rounding the displayed value. Groups without an amount stay absent.
func (r *PriceResolver) displayAmounts(
	ctx context.Context,
	c *call,
	raw pricing.GroupAmounts,
	cur valueobject.Currency,
	withTax bool,
) (pricing.GroupAmounts, error) {
	out := make(pricing.GroupAmounts, len(raw))
	for id, amount := range raw {
		v, err := amount.Map(func(d decimal.Decimal) (decimal.Decimal, error) {
			if !c.store.IsBase(cur) {
				converted, err := r.convert(ctx, c, d, cur)
				if err != nil {
					return d, err
				}
				d = r.deps.Currency.Round(converted)
			}
			taxed, err := r.applyTax(ctx, c, d, withTax)
			if err != nil {
				return d, err
			}
			return r.deps.Currency.Round(taxed), nil
		})
		if err != nil {
			return nil, err
		}
		if v.Present() {
			out[id] = v
		}
	}
	return out, nil
}

// addGroupPrices records the engine's per-group final price, falling back to the default
func (r *PriceResolver) addGroupPrices(
	ctx context.Context,
	c *call,
	cur valueobject.Currency,
	withTax bool,
	row *pricing.PriceRow,
) error {
	for _, g := range c.store.Groups {
		gp := row.Group(g.ID)
		v, ok := c.final.Get(g.ID).Value()
		if !ok {
			gp.Amount = row.Default
			gp.Formatted = row.DefaultFormatted
			continue
		}

		v, err := r.convert(ctx, c, v, cur)
		if err != nil {
			return err
		}
		if v, err = r.applyTax(ctx, c, v, withTax); err != nil {
			return err
		}
		gp.Amount = r.deps.Currency.Round(v)
		if gp.Formatted, err = r.format(gp.Amount, cur, c); err != nil {
			return err
		}
		if gp.Amount.LessThan(row.Default) {
			gp.OriginalFormatted = row.DefaultFormatted
		}
	}
	return nil
}

// applySpecialPrices overrides amounts with a strictly lower special price
func (r *PriceResolver) applySpecialPrices(
	c *call,
	special pricing.GroupAmounts,
	cur valueobject.Currency,
	row *pricing.PriceRow,
) error {
	if !c.store.GroupPricing {
		sp, ok := special.Get(pricing.GroupNotLoggedIn).Value()
		if !ok || !sp.LessThan(row.Default) {
			return nil
		}
		formatted, err := r.format(sp, cur, c)
		if err != nil {
			return err
		}
		if row.DefaultOriginalFormatted == "" {
			row.DefaultOriginalFormatted = row.DefaultFormatted
		}
		row.Default = sp
		row.DefaultFormatted = formatted
		return nil
	}

	for _, g := range c.store.Groups {
		gp := row.Group(g.ID)
		sp, ok := special.Get(g.ID).Value()
		if !ok || !sp.LessThan(gp.Amount) {
			continue
		}
		formatted, err := r.format(sp, cur, c)
		if err != nil {
			return err
		}
		prior, priorFormatted := gp.Amount, gp.Formatted
		gp.Amount = sp
		gp.Formatted = formatted
		if prior.GreaterThan(sp) && gp.OriginalFormatted == "" {
			gp.OriginalFormatted = priorFormatted
		}
	}
	return nil
}

// annotateTierPrices writes tier prices next to the main amount without overriding it
func (r *PriceResolver) annotateTierPrices(
	c *call,
	tiers pricing.GroupAmounts,
	cur valueobject.Currency,
	row *pricing.PriceRow,
) error {
	if !c.store.GroupPricing {
		tp, ok := tiers.Get(pricing.GroupNotLoggedIn).Value()
		if !ok {
			return nil
		}
		formatted, err := r.format(tp, cur, c)
		if err != nil {
			return err
		}
		row.DefaultTier = pricing.Some(tp)
		row.DefaultTierFormatted = formatted
		return nil
	}

	for _, g := range c.store.Groups {
		tp, ok := tiers.Get(g.ID).Value()
		if !ok {
			continue
		}
		formatted, err := r.format(tp, cur, c)
		if err != nil {
			return err
		}
		gp := row.Group(g.ID)
		gp.Tier = pricing.Some(tp)
		gp.TierFormatted = formatted
	}
	return nil
}

// convert moves a base-currency amount into cur; the base currency is returned as-is
func (r *PriceResolver) convert(ctx context.Context, c *call, amount decimal.Decimal, cur valueobject.Currency) (decimal.Decimal, error) {
	if c.store.IsBase(cur) {
		return amount, nil
	}
	v, err := r.deps.Currency.Convert(ctx, amount, c.store.StoreID, cur)
	if err != nil {
		return amount, shared.NewCollaboratorError("currency conversion", err)
	}
	return v, nil
}

func (r *PriceResolver) applyTax(ctx context.Context, c *call, amount decimal.Decimal, withTax bool) (decimal.Decimal, error) {
	v, err := r.deps.Tax.ComputeDisplayPrice(ctx, c.product, amount, withTax)
	if err != nil {
		return amount, shared.NewCollaboratorError("tax display price", err)
	}
	return v, nil
}

func (r *PriceResolver) format(amount decimal.Decimal, cur valueobject.Currency, c *call) (string, error) {
	s, err := r.deps.Currency.Format(amount, cur, c.store.Locale)
	if err != nil {
		return "", shared.NewCollaboratorError("price formatting", err)
	}
	return s, nil
}
