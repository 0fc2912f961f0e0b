package persistence

import (
	"context"
	"fmt"

	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/catalogsync/indexer/internal/domain/shared/valueobject"
	"github.com/catalogsync/indexer/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCurrencyRateRepository reads directory currency rates
type GormCurrencyRateRepository struct {
	db *gorm.DB
}

// NewGormCurrencyRateRepository creates a new currency rate repository
func NewGormCurrencyRateRepository(db *gorm.DB) *GormCurrencyRateRepository {
	return &GormCurrencyRateRepository{db: db}
}

// GetRate returns the conversion rate between two currencies
func (r *GormCurrencyRateRepository) GetRate(ctx context.Context, from, to valueobject.Currency) (decimal.Decimal, error) {
	var rows []models.CurrencyRateModel
	err := r.db.WithContext(ctx).
		Where("currency_from = ? AND currency_to = ?", from.String(), to.String()).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("query currency rate %s->%s: %w", from, to, err)
	}
	if len(rows) == 0 {
		return decimal.Zero, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("no currency rate from %s to %s", from, to))
	}
	if !rows[0].Rate.IsPositive() {
		return decimal.Zero, shared.NewDataError("currency rate %s->%s is not positive", from, to)
	}
	return rows[0].Rate, nil
}
