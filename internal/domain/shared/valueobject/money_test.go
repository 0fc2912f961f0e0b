package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Currency
		wantErr bool
	}{
		{name: "upper case", input: "USD", want: USD},
		{name: "lower case is normalised", input: "eur", want: EUR},
		{name: "surrounding space", input: " gbp ", want: GBP},
		{name: "empty", input: "", wantErr: true},
		{name: "not iso", input: "XYZQ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestMoney_Round(t *testing.T) {
	m := MustMoney(decimal.RequireFromString("10.005"), USD)
	assert.Equal(t, "10.01", m.Round(DisplayPrecision).Amount().String())
	assert.Equal(t, "10.005", m.Amount().String(), "original is unchanged")
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "99.90 USD", MustMoney(decimal.RequireFromString("99.9"), USD).String())
	assert.Equal(t, "-0.50 EUR", MustMoney(decimal.RequireFromString("-0.5"), EUR).String())
	assert.Panics(t, func() { MustMoney(decimal.Zero, "") })
}
