package currency

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// symbol-first languages; everything else writes "1.234,50 €"
var prefixLanguages = map[string]bool{
	"en": true,
	"ja": true,
	"zh": true,
	"ko": true,
}

// Formatter renders localized price strings
type Formatter struct{}

// NewFormatter creates a formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format renders money with two decimals and locale grouping, e.g. "$1,234.50" or "1.234,50 €".
// Symbols come from CLDR for the locale; currencies without one use the ISO code.
func (f *Formatter) Format(m valueobject.Money, locale string) (string, error) {
	tag, err := parseLocale(locale)
	if err != nil {
		return "", err
	}
	unit, err := m.Currency().Unit()
	if err != nil {
		return "", fmt.Errorf("format price: %w", err)
	}

	p := message.NewPrinter(tag)
	value := m.Round(valueobject.DisplayPrecision).Amount()
	digits := p.Sprint(number.Decimal(value.Abs().InexactFloat64(), number.Scale(int(valueobject.DisplayPrecision))))
	sym := p.Sprint(currency.Symbol(unit))

	sign := ""
	if value.IsNegative() {
		sign = "-"
	}

	base, _ := tag.Base()
	if prefixLanguages[base.String()] {
		if r, _ := utf8.DecodeLastRuneInString(sym); unicode.IsLetter(r) {
			sym += " "
		}
		return sign + sym + digits, nil
	}
	return sign + digits + " " + sym, nil
}

// parseLocale accepts Magento style codes ("en_US") and BCP 47 tags
func parseLocale(locale string) (language.Tag, error) {
	if locale == "" {
		return language.AmericanEnglish, nil
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return tag, nil
}
