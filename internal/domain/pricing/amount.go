package pricing

import "github.com/shopspring/decimal"

// OptionalAmount is an amount that may be absent. An absent amount is
// distinct from a legitimate zero.
type OptionalAmount struct {
	value   decimal.Decimal
	present bool
}

// Some wraps a present amount
func Some(v decimal.Decimal) OptionalAmount {
	return OptionalAmount{value: v, present: true}
}

// None returns the absent amount
func None() OptionalAmount {
	return OptionalAmount{}
}

// Present reports whether an amount is set
func (a OptionalAmount) Present() bool {
	return a.present
}

// Value returns the amount and whether it is set
func (a OptionalAmount) Value() (decimal.Decimal, bool) {
	return a.value, a.present
}

// MustValue returns the amount, panicking when absent
func (a OptionalAmount) MustValue() decimal.Decimal {
	if !a.present {
		panic("pricing: value of absent amount")
	}
	return a.value
}

// Min returns the smaller of two optional amounts, ignoring absent ones
func (a OptionalAmount) Min(b OptionalAmount) OptionalAmount {
	switch {
	case !a.present:
		return b
	case !b.present:
		return a
	case b.value.LessThan(a.value):
		return b
	default:
		return a
	}
}

// Map applies fn to a present amount; absent amounts pass through untouched
func (a OptionalAmount) Map(fn func(decimal.Decimal) (decimal.Decimal, error)) (OptionalAmount, error) {
	if !a.present {
		return a, nil
	}
	v, err := fn(a.value)
	if err != nil {
		return None(), err
	}
	return Some(v), nil
}

// GroupAmounts holds one optional amount per customer group
type GroupAmounts map[GroupID]OptionalAmount

// Get returns the amount of a group, absent when the group has no entry
func (g GroupAmounts) Get(id GroupID) OptionalAmount {
	if g == nil {
		return None()
	}
	return g[id]
}
