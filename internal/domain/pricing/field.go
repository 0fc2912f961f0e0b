package pricing

import "github.com/catalogsync/indexer/internal/domain/shared"

// PriceField names a price attribute emitted to the index
type PriceField string

const (
	FieldPrice        PriceField = "price"
	FieldPriceWithTax PriceField = "price_with_tax"
)

// String returns the attribute name
func (f PriceField) String() string {
	return string(f)
}

// WithTax reports whether amounts of this field are shown tax-inclusive
func (f PriceField) WithTax() bool {
	return f == FieldPriceWithTax
}

// TaxDisplayMode is the store-level catalog price display setting.
// Values match the host configuration constants.
type TaxDisplayMode int

const (
	DisplayExcludingTax TaxDisplayMode = 1
	DisplayIncludingTax TaxDisplayMode = 2
	DisplayBoth         TaxDisplayMode = 3
)

// String returns the configuration name of the mode
func (m TaxDisplayMode) String() string {
	switch m {
	case DisplayExcludingTax:
		return "excluding_tax"
	case DisplayIncludingTax:
		return "including_tax"
	case DisplayBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseTaxDisplayMode maps a configuration name to a mode
func ParseTaxDisplayMode(s string) (TaxDisplayMode, error) {
	switch s {
	case "excluding_tax", "excluding", "excl", "1":
		return DisplayExcludingTax, nil
	case "including_tax", "including", "incl", "2":
		return DisplayIncludingTax, nil
	case "both", "3":
		return DisplayBoth, nil
	default:
		return 0, shared.NewConfigurationError("unknown tax display mode %q", s)
	}
}

// Fields returns the price fields emitted for the display mode, in output order
func (m TaxDisplayMode) Fields() ([]PriceField, error) {
	switch m {
	case DisplayExcludingTax:
		return []PriceField{FieldPrice}, nil
	case DisplayIncludingTax:
		return []PriceField{FieldPriceWithTax}, nil
	case DisplayBoth:
		return []PriceField{FieldPrice, FieldPriceWithTax}, nil
	default:
		return nil, shared.NewConfigurationError("cannot resolve tax display mode %d", int(m))
	}
}
