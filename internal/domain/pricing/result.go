package pricing

import (
	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// GroupPrice is the price of one customer group within a row.
// Empty formatted strings mean "not set".
type GroupPrice struct {
	Amount            decimal.Decimal
	Formatted         string
	OriginalFormatted string
	Tier              OptionalAmount
	TierFormatted     string
}

// PriceRow is the output record for one field and currency
type PriceRow struct {
	Default                  decimal.Decimal
	DefaultFormatted         string
	DefaultOriginalFormatted string
	SpecialFromDate          *int64
	SpecialToDate            *int64
	DefaultTier              OptionalAmount
	DefaultTierFormatted     string
	Groups                   map[GroupID]*GroupPrice
	Extra                    map[string]any
}

// NewPriceRow creates an empty row
func NewPriceRow() *PriceRow {
	return &PriceRow{
		Groups: make(map[GroupID]*GroupPrice),
		Extra:  make(map[string]any),
	}
}

// Group returns the group entry, creating it if needed
func (r *PriceRow) Group(id GroupID) *GroupPrice {
	g, ok := r.Groups[id]
	if !ok {
		g = &GroupPrice{}
		r.Groups[id] = g
	}
	return g
}

// Set stores an additional attribute contributed by an extension
func (r *PriceRow) Set(key string, value any) {
	r.Extra[key] = value
}

// Attributes flattens the row into index attribute names
func (r *PriceRow) Attributes() map[string]any {
	out := map[string]any{
		"default":           r.Default.InexactFloat64(),
		"default_formatted": r.DefaultFormatted,
		"special_from_date": epochOrEmpty(r.SpecialFromDate),
		"special_to_date":   epochOrEmpty(r.SpecialToDate),
	}
	if r.DefaultOriginalFormatted != "" {
		out["default_original_formatted"] = r.DefaultOriginalFormatted
	}
	if v, ok := r.DefaultTier.Value(); ok {
		out["default_tier"] = v.InexactFloat64()
		out["default_tier_formatted"] = r.DefaultTierFormatted
	}
	for id, g := range r.Groups {
		prefix := id.AttributePrefix()
		out[prefix] = g.Amount.InexactFloat64()
		out[prefix+"_formatted"] = g.Formatted
		if g.OriginalFormatted != "" {
			out[prefix+"_original_formatted"] = g.OriginalFormatted
		}
		if v, ok := g.Tier.Value(); ok {
			out[prefix+"_tier"] = v.InexactFloat64()
			out[prefix+"_tier_formatted"] = g.TierFormatted
		}
	}
	for k, v := range r.Extra {
		out[k] = v
	}
	return out
}

func epochOrEmpty(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}

// PriceResultSet holds every row computed for one product
type PriceResultSet map[PriceField]map[valueobject.Currency]*PriceRow

// Row returns the row for a field and currency, creating it if needed
func (s PriceResultSet) Row(field PriceField, cur valueobject.Currency) *PriceRow {
	byCurrency, ok := s[field]
	if !ok {
		byCurrency = make(map[valueobject.Currency]*PriceRow)
		s[field] = byCurrency
	}
	row, ok := byCurrency[cur]
	if !ok {
		row = NewPriceRow()
		byCurrency[cur] = row
	}
	return row
}

// Attributes renders the set as field -> currency -> attribute -> value
func (s PriceResultSet) Attributes() map[string]any {
	out := make(map[string]any, len(s))
	for field, byCurrency := range s {
		rows := make(map[string]any, len(byCurrency))
		for cur, row := range byCurrency {
			rows[cur.String()] = row.Attributes()
		}
		out[field.String()] = rows
	}
	return out
}

// MergeInto copies existing custom data and sets the price fields on the copy.
// Existing keys other than the computed fields are kept.
func (s PriceResultSet) MergeInto(existing map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(s))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range s.Attributes() {
		out[k] = v
	}
	return out
}
