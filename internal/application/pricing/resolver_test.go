package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	stores   *fakeStores
	groups   *MockGroupDirectory
	tax      *fakeTax
	rules    *fakeRules
	tiers    *MockTierProvider
	currency *fakeCurrency
	engine   *fakeEngine
}

func newFixture() *fixture {
	return &fixture{
		stores: &fakeStores{
			base:       valueobject.USD,
			currencies: []valueobject.Currency{valueobject.USD},
			locale:     "en_US",
		},
		groups:   new(MockGroupDirectory),
		tax:      &fakeTax{mode: pricing.DisplayExcludingTax, rate: decimal.RequireFromString("0.1")},
		rules:    &fakeRules{prices: map[pricing.GroupID]decimal.Decimal{}},
		tiers:    new(MockTierProvider),
		currency: &fakeCurrency{rates: map[valueobject.Currency]decimal.Decimal{valueobject.EUR: decimal.RequireFromString("0.9")}},
		engine:   &fakeEngine{prices: map[pricing.GroupID]decimal.Decimal{}},
	}
}

func (f *fixture) withGroups(groups ...pricing.CustomerGroup) *fixture {
	f.stores.groupPricing = true
	f.groups.On("ListGroups", mock.Anything, false).Return(groups, nil)
	return f
}

func (f *fixture) resolver(t *testing.T, opts ...Option) *PriceResolver {
	t.Helper()
	// catch-alls registered last so test-specific expectations win
	f.groups.On("GetExcludedWebsitesForGroup", mock.Anything, mock.Anything).Return([]int64{}, nil).Maybe()
	f.tiers.On("GetTierPrices", mock.Anything, mock.Anything, mock.Anything).Return([]pricing.TierPrice{}, nil).Maybe()

	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	r, err := NewPriceResolver(Dependencies{
		Stores:   f.stores,
		Groups:   f.groups,
		Tax:      f.tax,
		Rules:    f.rules,
		Tiers:    f.tiers,
		Currency: f.currency,
		Engine:   f.engine,
	}, opts...)
	require.NoError(t, err)
	return r
}

func newProduct() *pricing.Product {
	return &pricing.Product{
		ID:         42,
		SKU:        "SKU-42",
		StoreID:    1,
		WebsiteID:  1,
		Price:      decimal.NewFromInt(100),
		FinalPrice: decimal.NewFromInt(100),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rowOf(t *testing.T, out map[string]any, field pricing.PriceField, cur valueobject.Currency) map[string]any {
	t.Helper()
	byCurrency, ok := out[field.String()].(map[string]any)
	require.True(t, ok, "missing field %s", field)
	row, ok := byCurrency[cur.String()].(map[string]any)
	require.True(t, ok, "missing currency %s", cur)
	return row
}

func TestNewPriceResolver_MissingDependency(t *testing.T) {
	f := newFixture()
	_, err := NewPriceResolver(Dependencies{
		Stores: f.stores,
		Groups: f.groups,
		Tax:    f.tax,
	})
	assert.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestComputePriceData_PlainProduct(t *testing.T) {
	f := newFixture()
	r := f.resolver(t)

	out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
	require.NoError(t, err)

	row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
	assert.Equal(t, 100.0, row["default"])
	assert.Equal(t, "$100.00", row["default_formatted"])
	assert.NotContains(t, row, "default_original_formatted")
	assert.Equal(t, "", row["special_from_date"])
	assert.Equal(t, "", row["special_to_date"])
	assert.NotContains(t, out, pricing.FieldPriceWithTax.String())
}

func TestComputePriceData_SpecialPriceOverridesDefault(t *testing.T) {
	f := newFixture()
	r := f.resolver(t)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	p := newProduct()
	sp := decimal.NewFromInt(80)
	p.SpecialPrice = &sp
	p.SpecialFromDate = &from
	p.FinalPrice = sp

	out, err := r.ComputePriceData(context.Background(), p, nil, nil)
	require.NoError(t, err)

	row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
	assert.Equal(t, 80.0, row["default"])
	assert.Equal(t, "$80.00", row["default_formatted"])
	assert.Equal(t, "$100.00", row["default_original_formatted"])
	assert.Equal(t, from.Unix(), row["special_from_date"])
	assert.Equal(t, "", row["special_to_date"])
}

func TestComputePriceData_EqualSpecialPriceLeavesNoSnapshot(t *testing.T) {
	f := newFixture()
	f.rules.prices[pricing.GroupNotLoggedIn] = decimal.NewFromInt(100)
	r := f.resolver(t)

	out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
	require.NoError(t, err)

	row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
	assert.Equal(t, 100.0, row["default"])
	assert.NotContains(t, row, "default_original_formatted")
}

func TestComputePriceData_RulePriceUsesInjectedClock(t *testing.T) {
	f := newFixture()
	f.rules.prices[pricing.GroupNotLoggedIn] = decimal.NewFromInt(75)
	r := f.resolver(t)

	out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
	require.NoError(t, err)

	row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
	assert.Equal(t, 75.0, row["default"])
	require.NotEmpty(t, f.rules.asOf)
	for _, asOf := range f.rules.asOf {
		assert.True(t, asOf.Equal(fixedNow))
	}
}

func TestComputePriceData_NonPositiveCandidatesIgnored(t *testing.T) {
	f := newFixture()
	f.rules.prices[pricing.GroupNotLoggedIn] = decimal.Zero
	r := f.resolver(t)

	p := newProduct()
	p.FinalPrice = decimal.Zero

	out, err := r.ComputePriceData(context.Background(), p, nil, nil)
	require.NoError(t, err)

	row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
	assert.Equal(t, 100.0, row["default"])
	assert.NotContains(t, row, "default_original_formatted")
}

func TestComputePriceData_NonBaseCurrency(t *testing.T) {
	f := newFixture()
	f.stores.currencies = []valueobject.Currency{valueobject.USD, valueobject.EUR}
	r := f.resolver(t)

	out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
	require.NoError(t, err)

	usd := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
	eur := rowOf(t, out, pricing.FieldPrice, valueobject.EUR)
	assert.Equal(t, 100.0, usd["default"])
	assert.Equal(t, 90.0, eur["default"])
	assert.Equal(t, "€90.00", eur["default_formatted"])
}

func TestComputePriceData_NonBaseCurrencyRoundsBeforeTax(t *testing.T) {
	// EUR at 0.9, 10% tax; every value below would differ by a cent if tax
	// were applied to the unrounded conversion
	tests := []struct {
		name   string
		groups []pricing.CustomerGroup
		setup  func(f *fixture)
		want   map[string]any
	}{
		{
			name: "group pricing disabled",
			setup: func(f *fixture) {
				f.rules.prices[0] = dec("79.95")
			},
			want: map[string]any{
				"default":                    79.16, // round(round(79.95*0.9)*1.1)
				"default_formatted":          "€79.16",
				"default_original_formatted": "€99.00",
				"default_tier":               8.27, // round(round(8.36*0.9)*1.1)
			},
		},
		{
			name:   "group pricing enabled",
			groups: []pricing.CustomerGroup{{ID: 1}, {ID: 2}},
			setup: func(f *fixture) {
				f.engine.prices[1] = dec("80.95")
				f.rules.prices[2] = dec("79.95")
			},
			want: map[string]any{
				"default":                    99.0,
				"group_1":                    80.14, // engine amount: round(80.95*0.9*1.1)
				"group_1_original_formatted": "€99.00",
				"group_2":                    79.16,
				"group_2_formatted":          "€79.16",
				"group_2_original_formatted": "€99.00",
				"group_1_tier":               8.27,
				"group_2_tier":               8.27,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.groups != nil {
				f.withGroups(tt.groups...)
			}
			f.stores.currencies = []valueobject.Currency{valueobject.USD, valueobject.EUR}
			f.tax.mode = pricing.DisplayIncludingTax
			tt.setup(f)
			r := f.resolver(t)

			p := newProduct()
			p.TierPrices = []pricing.TierPrice{{GroupID: pricing.GroupAll, Qty: decimal.NewFromInt(2), Value: dec("8.36")}}
			out, err := r.ComputePriceData(context.Background(), p, nil, nil)
			require.NoError(t, err)

			row := rowOf(t, out, pricing.FieldPriceWithTax, valueobject.EUR)
			for key, want := range tt.want {
				assert.Equal(t, want, row[key], key)
			}
		})
	}
}

func TestComputePriceData_BothTaxDisplays(t *testing.T) {
	f := newFixture()
	f.tax.mode = pricing.DisplayBoth
	r := f.resolver(t)

	out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 100.0, rowOf(t, out, pricing.FieldPrice, valueobject.USD)["default"])
	withTax := rowOf(t, out, pricing.FieldPriceWithTax, valueobject.USD)
	assert.Equal(t, 110.0, withTax["default"])
	assert.Equal(t, "$110.00", withTax["default_formatted"])
}

func TestComputePriceData_IncludingTaxOnly(t *testing.T) {
	f := newFixture()
	f.tax.mode = pricing.DisplayIncludingTax
	r := f.resolver(t)

	out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
	require.NoError(t, err)

	assert.NotContains(t, out, pricing.FieldPrice.String())
	assert.Equal(t, 110.0, rowOf(t, out, pricing.FieldPriceWithTax, valueobject.USD)["default"])
}

func TestComputePriceData_TierPrices(t *testing.T) {
	t.Run("wildcard lower than group entry", func(t *testing.T) {
		f := newFixture()
		r := f.resolver(t)

		p := newProduct()
		p.TierPrices = []pricing.TierPrice{
			{GroupID: 0, Qty: decimal.NewFromInt(5), Value: decimal.NewFromInt(10)},
			{GroupID: pricing.GroupAll, Qty: decimal.NewFromInt(10), Value: decimal.NewFromInt(8)},
		}

		out, err := r.ComputePriceData(context.Background(), p, nil, nil)
		require.NoError(t, err)

		row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
		assert.Equal(t, 8.0, row["default_tier"])
		assert.Equal(t, "$8.00", row["default_tier_formatted"])
		assert.Equal(t, 100.0, row["default"], "tier price never overrides the main amount")
		f.tiers.AssertNotCalled(t, "GetTierPrices", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicates collapse to the minimum", func(t *testing.T) {
		f := newFixture()
		r := f.resolver(t)

		p := newProduct()
		p.TierPrices = []pricing.TierPrice{
			{GroupID: 0, Qty: decimal.NewFromInt(2), Value: decimal.NewFromInt(12)},
			{GroupID: 0, Qty: decimal.NewFromInt(5), Value: decimal.NewFromInt(9)},
		}

		out, err := r.ComputePriceData(context.Background(), p, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 9.0, rowOf(t, out, pricing.FieldPrice, valueobject.USD)["default_tier"])
	})

	t.Run("group without entry is absent", func(t *testing.T) {
		f := newFixture().withGroups(
			pricing.CustomerGroup{ID: 0, Code: "NOT LOGGED IN"},
			pricing.CustomerGroup{ID: 1, Code: "General"},
		)
		r := f.resolver(t)

		p := newProduct()
		p.TierPrices = []pricing.TierPrice{
			{GroupID: 1, Qty: decimal.NewFromInt(2), Value: decimal.NewFromInt(5)},
		}

		out, err := r.ComputePriceData(context.Background(), p, nil, nil)
		require.NoError(t, err)

		row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
		assert.NotContains(t, row, "group_0_tier")
		assert.NotContains(t, row, "group_0_tier_formatted")
		assert.Equal(t, 5.0, row["group_1_tier"])
		assert.Equal(t, "$5.00", row["group_1_tier_formatted"])
	})

	t.Run("per-group provider path", func(t *testing.T) {
		f := newFixture().withGroups(
			pricing.CustomerGroup{ID: 0},
			pricing.CustomerGroup{ID: 1},
		)
		f.tiers.On("GetTierPrices", mock.Anything, "SKU-42", pricing.GroupID(1)).Return([]pricing.TierPrice{
			{GroupID: 1, Qty: decimal.NewFromInt(3), Value: decimal.NewFromInt(20)},
			{GroupID: pricing.GroupAll, Qty: decimal.NewFromInt(3), Value: decimal.NewFromInt(30)},
		}, nil).Once()
		r := f.resolver(t)

		out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
		require.NoError(t, err)

		row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
		assert.Equal(t, 30.0, row["group_0_tier"], "wildcard applies to every group")
		assert.Equal(t, 20.0, row["group_1_tier"])
		f.tiers.AssertCalled(t, "GetTierPrices", mock.Anything, "SKU-42", pricing.GroupID(0))
	})

	t.Run("negative tier value is rejected", func(t *testing.T) {
		f := newFixture()
		f.tiers.On("GetTierPrices", mock.Anything, "SKU-42", pricing.GroupNotLoggedIn).Return([]pricing.TierPrice{
			{GroupID: 0, Qty: decimal.NewFromInt(1), Value: decimal.NewFromInt(-1)},
		}, nil)
		r := f.resolver(t)

		out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, shared.ErrData)
	})
}

func TestComputePriceData_GroupPricing(t *testing.T) {
	f := newFixture().withGroups(
		pricing.CustomerGroup{ID: 0, Code: "NOT LOGGED IN"},
		pricing.CustomerGroup{ID: 1, Code: "General"},
		pricing.CustomerGroup{ID: 2, Code: "Wholesale"},
		pricing.CustomerGroup{ID: 3, Code: "Retailer"},
	)
	f.groups.On("GetExcludedWebsitesForGroup", mock.Anything, pricing.GroupID(3)).Return([]int64{1, 2}, nil)
	f.engine.prices[1] = decimal.NewFromInt(90)
	f.engine.prices[2] = decimal.NewFromInt(100)
	f.rules.prices[1] = decimal.NewFromInt(85)
	r := f.resolver(t)

	out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
	require.NoError(t, err)

	row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
	assert.Equal(t, 100.0, row["default"])

	// engine yields nothing: falls back to default
	assert.Equal(t, 100.0, row["group_0"])
	assert.Equal(t, "$100.00", row["group_0_formatted"])
	assert.NotContains(t, row, "group_0_original_formatted")

	// discounted by the engine, then undercut by a rule; the first snapshot stays
	assert.Equal(t, 85.0, row["group_1"])
	assert.Equal(t, "$85.00", row["group_1_formatted"])
	assert.Equal(t, "$100.00", row["group_1_original_formatted"])

	// equal to default
	assert.Equal(t, 100.0, row["group_2"])
	assert.NotContains(t, row, "group_2_original_formatted")

	// excluded from the product's website
	assert.NotContains(t, row, "group_3")
}

func TestComputePriceData_GroupSpecialSnapshotsPriorAmount(t *testing.T) {
	f := newFixture().withGroups(pricing.CustomerGroup{ID: 1})
	f.rules.prices[1] = decimal.NewFromInt(70)
	r := f.resolver(t)

	out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
	require.NoError(t, err)

	row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
	assert.Equal(t, 70.0, row["group_1"])
	assert.Equal(t, "$100.00", row["group_1_original_formatted"])
}

func TestComputePriceData_DisabledGroupPricingSkipsDirectory(t *testing.T) {
	f := newFixture()
	r := f.resolver(t)

	out, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
	require.NoError(t, err)

	row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
	assert.NotContains(t, row, "group_0")
	f.groups.AssertNotCalled(t, "ListGroups", mock.Anything, mock.Anything)
}

func TestComputePriceData_DoesNotMutateCarryIn(t *testing.T) {
	f := newFixture()
	r := f.resolver(t)

	existing := map[string]any{"name": "Blue Shirt", "price": "stale"}
	out, err := r.ComputePriceData(context.Background(), newProduct(), existing, nil)
	require.NoError(t, err)

	assert.Equal(t, "Blue Shirt", out["name"])
	assert.IsType(t, map[string]any{}, out["price"])
	assert.Equal(t, "stale", existing["price"])
	assert.Len(t, existing, 2)
}

func TestComputePriceData_Errors(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name  string
		setup func(f *fixture)
		is    error
	}{
		{
			name:  "no enabled currencies",
			setup: func(f *fixture) { f.stores.currencies = nil },
			is:    shared.ErrConfiguration,
		},
		{
			name:  "no base currency",
			setup: func(f *fixture) { f.stores.base = "" },
			is:    shared.ErrConfiguration,
		},
		{
			name:  "unknown display mode",
			setup: func(f *fixture) { f.tax.mode = pricing.TaxDisplayMode(7) },
			is:    shared.ErrConfiguration,
		},
		{
			name:  "store provider failure",
			setup: func(f *fixture) { f.stores.err = boom },
			is:    boom,
		},
		{
			name: "tax failure",
			setup: func(f *fixture) {
				f.tax.err = boom
			},
			is: boom,
		},
		{
			name: "conversion failure",
			setup: func(f *fixture) {
				f.stores.currencies = []valueobject.Currency{valueobject.USD, valueobject.EUR}
				f.currency.err = boom
			},
			is: boom,
		},
		{
			name: "tier provider failure",
			setup: func(f *fixture) {
				f.tiers.On("GetTierPrices", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)
			},
			is: boom,
		},
		{
			name: "group directory failure",
			setup: func(f *fixture) {
				f.stores.groupPricing = true
				f.groups.On("ListGroups", mock.Anything, false).Return(nil, boom)
			},
			is: boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)
			r := f.resolver(t)

			existing := map[string]any{"name": "kept"}
			out, err := r.ComputePriceData(context.Background(), newProduct(), existing, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
			assert.Nil(t, out)
			assert.Equal(t, map[string]any{"name": "kept"}, existing)
		})
	}
}

func TestComputePriceData_CollaboratorErrorCode(t *testing.T) {
	f := newFixture()
	f.tax.err = errors.New("tax service down")
	r := f.resolver(t)

	_, err := r.ComputePriceData(context.Background(), newProduct(), nil, nil)
	assert.True(t, shared.IsCode(err, shared.CodeCollaborator))
}

func TestComputePriceData_InvalidProduct(t *testing.T) {
	f := newFixture()
	r := f.resolver(t)

	p := newProduct()
	p.SKU = ""
	_, err := r.ComputePriceData(context.Background(), p, nil, nil)
	assert.ErrorIs(t, err, shared.ErrData)
}

func TestComputePriceData_ConcurrentCalls(t *testing.T) {
	f := newFixture().withGroups(pricing.CustomerGroup{ID: 0}, pricing.CustomerGroup{ID: 1})
	f.stores.currencies = []valueobject.Currency{valueobject.USD, valueobject.EUR}
	f.engine.prices[1] = decimal.NewFromInt(95)
	r := f.resolver(t)

	var wg sync.WaitGroup
	results := make([]map[string]any, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := newProduct()
			p.ID = int64(i + 1)
			p.Price = decimal.NewFromInt(int64(100 + i))
			p.FinalPrice = p.Price
			results[i], errs[i] = r.ComputePriceData(context.Background(), p, nil, nil)
		}(i)
	}
	wg.Wait()

	for i, out := range results {
		require.NoError(t, errs[i])
		row := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
		assert.Equal(t, float64(100+i), row["default"])
		assert.Equal(t, 95.0, row["group_1"])
	}
}

func TestSubProductRangeContributor(t *testing.T) {
	f := newFixture()
	f.stores.currencies = []valueobject.Currency{valueobject.USD, valueobject.EUR}
	r := f.resolver(t, WithContributors(NewSubProductRangeContributor(f.tax, f.currency)))

	parent := newProduct()
	parent.Price = decimal.Zero
	parent.FinalPrice = decimal.Zero
	subs := []pricing.Product{
		{ID: 43, SKU: "SKU-43", Price: dec("50"), FinalPrice: dec("50")},
		{ID: 44, SKU: "SKU-44", Price: dec("70"), FinalPrice: dec("70")},
		{ID: 45, SKU: "SKU-45", Price: dec("0"), FinalPrice: dec("0")},
	}

	out, err := r.ComputePriceData(context.Background(), parent, nil, subs)
	require.NoError(t, err)

	usd := rowOf(t, out, pricing.FieldPrice, valueobject.USD)
	assert.Equal(t, 50.0, usd["default"])
	assert.Equal(t, "$50.00 - $70.00", usd["default_formatted"])
	assert.Equal(t, 70.0, usd["default_max"])
	assert.Equal(t, "$70.00", usd["default_max_formatted"])

	eur := rowOf(t, out, pricing.FieldPrice, valueobject.EUR)
	assert.Equal(t, 45.0, eur["default"])
	assert.Equal(t, "€45.00 - €63.00", eur["default_formatted"])
}

func TestSubProductRangeContributor_SinglePrice(t *testing.T) {
	f := newFixture()
	c := NewSubProductRangeContributor(f.tax, f.currency)

	row := pricing.NewPriceRow()
	row.Default = dec("60")
	row.DefaultFormatted = "$60.00"
	err := c.Contribute(context.Background(), pricing.Contribution{
		Store:       pricing.StoreView{StoreID: 1, BaseCurrency: valueobject.USD},
		Product:     newProduct(),
		SubProducts: []pricing.Product{{ID: 2, SKU: "A", FinalPrice: dec("60")}, {ID: 3, SKU: "B", FinalPrice: dec("60")}},
		Field:       pricing.FieldPrice,
		Currency:    valueobject.USD,
		Row:         row,
	})
	require.NoError(t, err)

	assert.Equal(t, "$60.00", row.DefaultFormatted)
	assert.Equal(t, 60.0, row.Extra["default_max"])
}
