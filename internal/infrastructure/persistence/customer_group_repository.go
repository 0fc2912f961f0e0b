package persistence

import (
	"context"
	"fmt"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerGroupRepository implements pricing.CustomerGroupDirectory
type GormCustomerGroupRepository struct {
	db *gorm.DB
}

// NewGormCustomerGroupRepository creates a new customer group repository
func NewGormCustomerGroupRepository(db *gorm.DB) *GormCustomerGroupRepository {
	return &GormCustomerGroupRepository{db: db}
}

// ListGroups returns customer groups ordered by id
func (r *GormCustomerGroupRepository) ListGroups(ctx context.Context, includeDisabled bool) ([]pricing.CustomerGroup, error) {
	query := r.db.WithContext(ctx)
	if !includeDisabled {
		query = query.Where("is_disabled = ?", false)
	}

	var rows []models.CustomerGroupModel
	if err := query.Order("customer_group_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list customer groups: %w", err)
	}

	groups := make([]pricing.CustomerGroup, 0, len(rows))
	for i := range rows {
		groups = append(groups, rows[i].ToDomain())
	}
	return groups, nil
}

// GetExcludedWebsitesForGroup returns the websites where the group gets no group pricing
func (r *GormCustomerGroupRepository) GetExcludedWebsitesForGroup(ctx context.Context, groupID pricing.GroupID) ([]int64, error) {
	var websites []int64
	err := r.db.WithContext(ctx).
		Model(&models.CustomerGroupExcludedWebsiteModel{}).
		Where("customer_group_id = ?", int64(groupID)).
		Order("website_id").
		Pluck("website_id", &websites).Error
	if err != nil {
		return nil, fmt.Errorf("query excluded websites for group %d: %w", groupID, err)
	}
	return websites, nil
}
