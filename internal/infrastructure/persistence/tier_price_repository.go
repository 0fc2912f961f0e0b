package persistence

import (
	"context"
	"fmt"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTierPriceRepository reads configured tier prices
type GormTierPriceRepository struct {
	db *gorm.DB
}

// NewGormTierPriceRepository creates a new tier price repository
func NewGormTierPriceRepository(db *gorm.DB) *GormTierPriceRepository {
	return &GormTierPriceRepository{db: db}
}

// GetTierPrices returns the tier records that apply to a group: its own rows
// plus the all-groups rows. Implements pricing.TierPriceProvider.
func (r *GormTierPriceRepository) GetTierPrices(ctx context.Context, sku string, groupID pricing.GroupID) ([]pricing.TierPrice, error) {
	entityIDs := r.db.Model(&models.ProductIndexModel{}).Select("entity_id").Where("sku = ?", sku)

	query := r.db.WithContext(ctx).Where("entity_id IN (?)", entityIDs)
	if groupID.IsWildcard() {
		query = query.Where("all_groups = ?", true)
	} else {
		query = query.Where("all_groups = ? OR customer_group_id = ?", true, int64(groupID))
	}

	var rows []models.TierPriceModel
	if err := query.Order("value_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query tier prices for %s: %w", sku, err)
	}
	return toTierPrices(rows), nil
}

// LoadForProducts batch-loads tier records for many products of one website
func (r *GormTierPriceRepository) LoadForProducts(ctx context.Context, websiteID int64, entityIDs []int64) (map[int64][]pricing.TierPrice, error) {
	out := make(map[int64][]pricing.TierPrice, len(entityIDs))
	if len(entityIDs) == 0 {
		return out, nil
	}

	var rows []models.TierPriceModel
	err := r.db.WithContext(ctx).
		Scopes(WebsiteScope(websiteID)).
		Where("entity_id IN ?", entityIDs).
		Order("entity_id, value_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("batch load tier prices: %w", err)
	}

	for i := range rows {
		out[rows[i].EntityID] = append(out[rows[i].EntityID], rows[i].ToDomain())
	}
	return out, nil
}

func toTierPrices(rows []models.TierPriceModel) []pricing.TierPrice {
	out := make([]pricing.TierPrice, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out
}
