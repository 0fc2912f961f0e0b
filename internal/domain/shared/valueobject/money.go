// Package valueobject holds currency codes and amounts tied to them.
package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency is an upper-case ISO 4217 code
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CNY Currency = "CNY"
	CAD Currency = "CAD"
)

// DisplayPrecision is the number of decimals prices are rounded and formatted to
const DisplayPrecision int32 = 2

var errEmptyCurrency = errors.New("currency cannot be empty")

// ParseCurrency normalises code and checks it against ISO 4217
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", errEmptyCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

func (c Currency) String() string {
	return string(c)
}

// Unit resolves c to its x/text unit, failing for unknown codes
func (c Currency) Unit() (currency.Unit, error) {
	return currency.ParseISO(string(c))
}

// Money is an amount in one currency. Operations return new values.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, cur Currency) (Money, error) {
	if cur == "" {
		return Money{}, errEmptyCurrency
	}
	return Money{amount: amount, currency: cur}, nil
}

// MustMoney panics where NewMoney would fail
func MustMoney(amount decimal.Decimal, cur Currency) Money {
	m, err := NewMoney(amount, cur)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }

// Round rounds half away from zero to places decimals
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.currency}
}

// String renders the amount at display precision followed by the code, e.g. "99.90 USD"
func (m Money) String() string {
	return m.amount.StringFixed(DisplayPrecision) + " " + m.currency.String()
}
