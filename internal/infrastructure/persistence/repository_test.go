package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/catalogsync/indexer/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProducts(t *testing.T, db *gorm.DB) {
	t.Helper()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	special := dec("79.99")
	rows := []models.ProductIndexModel{
		{EntityID: 10, StoreID: 1, SKU: "TEE", WebsiteID: 1, Price: dec("100"), FinalPrice: dec("79.99"), SpecialPrice: &special, SpecialFromDate: &from},
		{EntityID: 10, StoreID: 2, SKU: "TEE", WebsiteID: 2, Price: dec("95"), FinalPrice: dec("95")},
		{EntityID: 11, StoreID: 1, SKU: "TEE-S", WebsiteID: 1, Price: dec("50"), FinalPrice: dec("50")},
		{EntityID: 12, StoreID: 1, SKU: "TEE-M", WebsiteID: 1, Price: dec("60"), FinalPrice: dec("55")},
		{EntityID: 13, StoreID: 1, SKU: "MUG", WebsiteID: 1, TaxClassID: 2, Price: dec("12"), FinalPrice: dec("12")},
	}
	require.NoError(t, db.Create(&rows).Error)
	require.NoError(t, db.Create(&[]models.SuperLinkModel{
		{ProductID: 11, ParentID: 10},
		{ProductID: 12, ParentID: 10},
	}).Error)
}

func TestGormProductRepository(t *testing.T) {
	db := setupCatalogTestDB(t)
	seedProducts(t, db)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	t.Run("find by sku is store scoped", func(t *testing.T) {
		p, err := repo.FindBySKU(ctx, 2, "TEE")
		require.NoError(t, err)
		assert.Equal(t, int64(10), p.ID)
		assert.Equal(t, int64(2), p.WebsiteID)
		assert.True(t, p.Price.Equal(dec("95")))
		assert.Nil(t, p.SpecialPrice)

		p, err = repo.FindBySKU(ctx, 1, "TEE")
		require.NoError(t, err)
		require.NotNil(t, p.SpecialPrice)
		assert.True(t, p.SpecialPrice.Equal(dec("79.99")))
		require.NotNil(t, p.SpecialFromDate)
		assert.True(t, p.SpecialFromDate.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("missing sku", func(t *testing.T) {
		_, err := repo.FindBySKU(ctx, 1, "NOPE")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("keyset pages", func(t *testing.T) {
		page, err := repo.FindPage(ctx, 1, 0, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, int64(10), page[0].ID)
		assert.Equal(t, int64(11), page[1].ID)

		page, err = repo.FindPage(ctx, 1, 11, 10)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "MUG", page[1].SKU)
		assert.Equal(t, int64(2), page[1].TaxClassID)
	})

	t.Run("children", func(t *testing.T) {
		children, err := repo.FindChildren(ctx, 1, 10)
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, "TEE-S", children[0].SKU)
		assert.True(t, children[1].FinalPrice.Equal(dec("55")))

		none, err := repo.FindChildren(ctx, 1, 13)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestGormTierPriceRepository(t *testing.T) {
	db := setupCatalogTestDB(t)
	seedProducts(t, db)
	require.NoError(t, db.Create(&[]models.TierPriceModel{
		{EntityID: 10, AllGroups: false, CustomerGroupID: 0, Qty: dec("5"), Value: dec("10"), WebsiteID: 0},
		{EntityID: 10, AllGroups: true, CustomerGroupID: 0, Qty: dec("10"), Value: dec("8"), WebsiteID: 0},
		{EntityID: 10, AllGroups: false, CustomerGroupID: 1, Qty: dec("2"), Value: dec("9"), WebsiteID: 1},
		{EntityID: 13, AllGroups: false, CustomerGroupID: 1, Qty: dec("2"), Value: dec("11"), WebsiteID: 2},
	}).Error)
	repo := NewGormTierPriceRepository(db)
	ctx := context.Background()

	t.Run("group rows plus wildcard rows", func(t *testing.T) {
		tiers, err := repo.GetTierPrices(ctx, "TEE", 0)
		require.NoError(t, err)
		require.Len(t, tiers, 2)
		assert.Equal(t, pricing.GroupID(0), tiers[0].GroupID)
		assert.Equal(t, pricing.GroupAll, tiers[1].GroupID)
		assert.True(t, tiers[1].Value.Equal(dec("8")))
	})

	t.Run("wildcard only", func(t *testing.T) {
		tiers, err := repo.GetTierPrices(ctx, "TEE", pricing.GroupAll)
		require.NoError(t, err)
		require.Len(t, tiers, 1)
		assert.Equal(t, pricing.GroupAll, tiers[0].GroupID)
	})

	t.Run("unknown sku", func(t *testing.T) {
		tiers, err := repo.GetTierPrices(ctx, "NOPE", 0)
		require.NoError(t, err)
		assert.Empty(t, tiers)
	})

	t.Run("batch load is website scoped", func(t *testing.T) {
		byProduct, err := repo.LoadForProducts(ctx, 1, []int64{10, 13})
		require.NoError(t, err)
		assert.Len(t, byProduct[10], 3)
		assert.Empty(t, byProduct[13])

		empty, err := repo.LoadForProducts(ctx, 1, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestGormCatalogRuleRepository(t *testing.T) {
	db := setupCatalogTestDB(t)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&[]models.CatalogRulePriceModel{
		{RuleDate: day, CustomerGroupID: 1, ProductID: 10, WebsiteID: 1, RulePrice: dec("85")},
		{RuleDate: day, CustomerGroupID: 1, ProductID: 10, WebsiteID: 1, RulePrice: dec("82.5")},
		{RuleDate: day.AddDate(0, 0, 1), CustomerGroupID: 1, ProductID: 10, WebsiteID: 1, RulePrice: dec("50")},
	}).Error)
	repo := NewGormCatalogRuleRepository(db)
	ctx := context.Background()

	price, err := repo.GetRulePrice(ctx, day.Add(15*time.Hour), 1, 1, 10)
	require.NoError(t, err)
	assert.True(t, price.MustValue().Equal(dec("82.5")))

	price, err = repo.GetRulePrice(ctx, day, 1, 0, 10)
	require.NoError(t, err)
	assert.False(t, price.Present())

	price, err = repo.GetRulePrice(ctx, day.AddDate(0, 0, 5), 1, 1, 10)
	require.NoError(t, err)
	assert.False(t, price.Present())
}

func TestGormCustomerGroupRepository(t *testing.T) {
	db := setupCatalogTestDB(t)
	require.NoError(t, db.Create(&[]models.CustomerGroupModel{
		{CustomerGroupID: 0, CustomerGroupCode: "NOT LOGGED IN", TaxClassID: 3},
		{CustomerGroupID: 1, CustomerGroupCode: "General", TaxClassID: 3},
		{CustomerGroupID: 2, CustomerGroupCode: "Legacy", TaxClassID: 3, IsDisabled: true},
	}).Error)
	require.NoError(t, db.Create(&[]models.CustomerGroupExcludedWebsiteModel{
		{CustomerGroupID: 1, WebsiteID: 3},
		{CustomerGroupID: 1, WebsiteID: 2},
	}).Error)
	repo := NewGormCustomerGroupRepository(db)
	ctx := context.Background()

	groups, err := repo.ListGroups(ctx, false)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, pricing.GroupNotLoggedIn, groups[0].ID)
	assert.Equal(t, "General", groups[1].Code)

	all, err := repo.ListGroups(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	excluded, err := repo.GetExcludedWebsitesForGroup(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, excluded)

	excluded, err = repo.GetExcludedWebsitesForGroup(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, excluded)
}

func TestGormCurrencyRateRepository(t *testing.T) {
	db := setupCatalogTestDB(t)
	require.NoError(t, db.Create(&[]models.CurrencyRateModel{
		{CurrencyFrom: "USD", CurrencyTo: "EUR", Rate: dec("0.9")},
		{CurrencyFrom: "USD", CurrencyTo: "GBP", Rate: dec("0")},
	}).Error)
	repo := NewGormCurrencyRateRepository(db)
	ctx := context.Background()

	rate, err := repo.GetRate(ctx, valueobject.USD, valueobject.EUR)
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("0.9")))

	_, err = repo.GetRate(ctx, valueobject.USD, valueobject.JPY)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.GetRate(ctx, valueobject.USD, valueobject.GBP)
	assert.ErrorIs(t, err, shared.ErrData)
}

func TestRepositories_PropagateQueryErrors(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	boom := errors.New("connection reset by peer")
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .* FROM "customer_group"`).WillReturnError(boom)
	_, err := NewGormCustomerGroupRepository(db.DB).ListGroups(ctx, false)
	assert.ErrorIs(t, err, boom)

	mock.ExpectQuery(`SELECT .* FROM "catalogrule_product_price"`).WillReturnError(boom)
	_, err = NewGormCatalogRuleRepository(db.DB).GetRulePrice(ctx, time.Now(), 1, 1, 10)
	assert.ErrorIs(t, err, boom)

	mock.ExpectQuery(`SELECT .* FROM "catalog_product_entity_tier_price"`).WillReturnError(boom)
	_, err = NewGormTierPriceRepository(db.DB).GetTierPrices(ctx, "TEE", 1)
	assert.ErrorIs(t, err, boom)

	mock.ExpectQuery(`SELECT .* FROM "catalog_product_index"`).WillReturnError(boom)
	_, err = NewGormProductRepository(db.DB).FindPage(ctx, 1, 0, 10)
	assert.ErrorIs(t, err, boom)

	mock.ExpectQuery(`SELECT .* FROM "directory_currency_rate"`).WillReturnError(boom)
	_, err = NewGormCurrencyRateRepository(db.DB).GetRate(ctx, valueobject.USD, valueobject.EUR)
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
