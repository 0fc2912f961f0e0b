package persistence

import (
	"context"
	"fmt"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/catalogsync/indexer/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository reads the flattened product index
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindBySKU loads one product of a store view
func (r *GormProductRepository) FindBySKU(ctx context.Context, storeID int64, sku string) (*pricing.Product, error) {
	var rows []models.ProductIndexModel
	err := r.db.WithContext(ctx).
		Scopes(StoreScope(storeID)).
		Where("sku = ?", sku).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query product %s: %w", sku, err)
	}
	if len(rows) == 0 {
		return nil, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("product %s not found in store %d", sku, storeID))
	}
	return rows[0].ToDomain(), nil
}

// FindPage returns up to limit products with an id greater than afterID,
// ordered by id, for keyset pagination.
func (r *GormProductRepository) FindPage(ctx context.Context, storeID, afterID int64, limit int) ([]*pricing.Product, error) {
	var rows []models.ProductIndexModel
	err := r.db.WithContext(ctx).
		Scopes(StoreScope(storeID)).
		Where("entity_id > ?", afterID).
		Order("entity_id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query product page after %d: %w", afterID, err)
	}

	products := make([]*pricing.Product, 0, len(rows))
	for i := range rows {
		products = append(products, rows[i].ToDomain())
	}
	return products, nil
}

// FindChildren returns the variants linked to a configurable parent
func (r *GormProductRepository) FindChildren(ctx context.Context, storeID, parentID int64) ([]pricing.Product, error) {
	childIDs := r.db.Model(&models.SuperLinkModel{}).Select("product_id").Where("parent_id = ?", parentID)

	var rows []models.ProductIndexModel
	err := r.db.WithContext(ctx).
		Scopes(StoreScope(storeID)).
		Where("entity_id IN (?)", childIDs).
		Order("entity_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query children of %d: %w", parentID, err)
	}

	children := make([]pricing.Product, 0, len(rows))
	for i := range rows {
		children = append(children, *rows[i].ToDomain())
	}
	return children, nil
}
