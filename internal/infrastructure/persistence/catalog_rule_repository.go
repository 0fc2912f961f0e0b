package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCatalogRuleRepository reads the materialized catalog rule prices
type GormCatalogRuleRepository struct {
	db *gorm.DB
}

// NewGormCatalogRuleRepository creates a new catalog rule repository
func NewGormCatalogRuleRepository(db *gorm.DB) *GormCatalogRuleRepository {
	return &GormCatalogRuleRepository{db: db}
}

// GetRulePrice returns the lowest rule price materialized for the day of asOf.
// Implements pricing.CatalogRuleEngine.
func (r *GormCatalogRuleRepository) GetRulePrice(
	ctx context.Context,
	asOf time.Time,
	websiteID int64,
	groupID pricing.GroupID,
	productID int64,
) (pricing.OptionalAmount, error) {
	y, m, d := asOf.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var prices []decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.CatalogRulePriceModel{}).
		Where("rule_date >= ? AND rule_date < ?", day, day.AddDate(0, 0, 1)).
		Where("website_id = ? AND customer_group_id = ? AND product_id = ?", websiteID, int64(groupID), productID).
		Order("rule_price ASC").
		Limit(1).
		Pluck("rule_price", &prices).Error
	if err != nil {
		return pricing.None(), fmt.Errorf("query catalog rule price for product %d: %w", productID, err)
	}
	if len(prices) == 0 {
		return pricing.None(), nil
	}
	return pricing.Some(prices[0]), nil
}
