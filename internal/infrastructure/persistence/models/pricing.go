package models

import (
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// TierPriceModel is a row of catalog_product_entity_tier_price
type TierPriceModel struct {
	ValueID         int64           `gorm:"column:value_id;primaryKey;autoIncrement"`
	EntityID        int64           `gorm:"column:entity_id;not null;index"`
	AllGroups       bool            `gorm:"column:all_groups;not null"`
	CustomerGroupID int64           `gorm:"column:customer_group_id;not null;default:0"`
	Qty             decimal.Decimal `gorm:"column:qty;type:decimal(12,4);not null"`
	Value           decimal.Decimal `gorm:"column:value;type:decimal(20,6);not null;default:0"`
	WebsiteID       int64           `gorm:"column:website_id;not null;default:0"`
}

// TableName returns the table name for GORM
func (TierPriceModel) TableName() string {
	return "catalog_product_entity_tier_price"
}

// ToDomain converts the row; all_groups rows belong to the wildcard group
func (m *TierPriceModel) ToDomain() pricing.TierPrice {
	group := pricing.GroupID(m.CustomerGroupID)
	if m.AllGroups {
		group = pricing.GroupAll
	}
	return pricing.TierPrice{GroupID: group, Qty: m.Qty, Value: m.Value}
}

// CatalogRulePriceModel is a row of catalogrule_product_price
type CatalogRulePriceModel struct {
	RuleProductPriceID int64           `gorm:"column:rule_product_price_id;primaryKey;autoIncrement"`
	RuleDate           time.Time       `gorm:"column:rule_date;type:date;not null;index:idx_catalogrule_lookup,priority:1"`
	CustomerGroupID    int64           `gorm:"column:customer_group_id;not null;index:idx_catalogrule_lookup,priority:2"`
	ProductID          int64           `gorm:"column:product_id;not null;index:idx_catalogrule_lookup,priority:3"`
	WebsiteID          int64           `gorm:"column:website_id;not null;index:idx_catalogrule_lookup,priority:4"`
	RulePrice          decimal.Decimal `gorm:"column:rule_price;type:decimal(20,6);not null;default:0"`
}

// TableName returns the table name for GORM
func (CatalogRulePriceModel) TableName() string {
	return "catalogrule_product_price"
}

// CustomerGroupModel is a row of customer_group
type CustomerGroupModel struct {
	CustomerGroupID   int64  `gorm:"column:customer_group_id;primaryKey;autoIncrement:false"`
	CustomerGroupCode string `gorm:"column:customer_group_code;type:varchar(32);not null"`
	TaxClassID        int64  `gorm:"column:tax_class_id;not null;default:0"`
	IsDisabled        bool   `gorm:"column:is_disabled;not null;default:false"`
}

// TableName returns the table name for GORM
func (CustomerGroupModel) TableName() string {
	return "customer_group"
}

// ToDomain converts the row to a domain customer group
func (m *CustomerGroupModel) ToDomain() pricing.CustomerGroup {
	return pricing.CustomerGroup{
		ID:         pricing.GroupID(m.CustomerGroupID),
		Code:       m.CustomerGroupCode,
		TaxClassID: m.TaxClassID,
	}
}

// CustomerGroupExcludedWebsiteModel is a row of customer_group_excluded_website
type CustomerGroupExcludedWebsiteModel struct {
	ID              int64 `gorm:"column:entity_id;primaryKey;autoIncrement"`
	CustomerGroupID int64 `gorm:"column:customer_group_id;not null;index"`
	WebsiteID       int64 `gorm:"column:website_id;not null"`
}

// TableName returns the table name for GORM
func (CustomerGroupExcludedWebsiteModel) TableName() string {
	return "customer_group_excluded_website"
}

// CurrencyRateModel is a row of directory_currency_rate
type CurrencyRateModel struct {
	CurrencyFrom string          `gorm:"column:currency_from;type:varchar(3);primaryKey"`
	CurrencyTo   string          `gorm:"column:currency_to;type:varchar(3);primaryKey"`
	Rate         decimal.Decimal `gorm:"column:rate;type:decimal(24,12);not null;default:0"`
}

// TableName returns the table name for GORM
func (CurrencyRateModel) TableName() string {
	return "directory_currency_rate"
}

// ProductIndexModel is a row of catalog_product_index, the flattened
// per-store product view the indexer reads.
type ProductIndexModel struct {
	EntityID        int64            `gorm:"column:entity_id;primaryKey"`
	StoreID         int64            `gorm:"column:store_id;primaryKey"`
	SKU             string           `gorm:"column:sku;type:varchar(64);not null;index"`
	WebsiteID       int64            `gorm:"column:website_id;not null"`
	TaxClassID      int64            `gorm:"column:tax_class_id;not null;default:0"`
	Price           decimal.Decimal  `gorm:"column:price;type:decimal(20,6);not null;default:0"`
	FinalPrice      decimal.Decimal  `gorm:"column:final_price;type:decimal(20,6);not null;default:0"`
	SpecialPrice    *decimal.Decimal `gorm:"column:special_price;type:decimal(20,6)"`
	SpecialFromDate *time.Time       `gorm:"column:special_from_date"`
	SpecialToDate   *time.Time       `gorm:"column:special_to_date"`
}

// TableName returns the table name for GORM
func (ProductIndexModel) TableName() string {
	return "catalog_product_index"
}

// ToDomain converts the row to a domain product without tier prices
func (m *ProductIndexModel) ToDomain() *pricing.Product {
	return &pricing.Product{
		ID:              m.EntityID,
		SKU:             m.SKU,
		StoreID:         m.StoreID,
		WebsiteID:       m.WebsiteID,
		TaxClassID:      m.TaxClassID,
		Price:           m.Price,
		FinalPrice:      m.FinalPrice,
		SpecialPrice:    m.SpecialPrice,
		SpecialFromDate: m.SpecialFromDate,
		SpecialToDate:   m.SpecialToDate,
	}
}

// SuperLinkModel is a row of catalog_product_super_link, linking a
// configurable parent to its variants.
type SuperLinkModel struct {
	LinkID    int64 `gorm:"column:link_id;primaryKey;autoIncrement"`
	ProductID int64 `gorm:"column:product_id;not null;index"`
	ParentID  int64 `gorm:"column:parent_id;not null;index"`
}

// TableName returns the table name for GORM
func (SuperLinkModel) TableName() string {
	return "catalog_product_super_link"
}

// All lists every model, in dependency order, for schema setup in tests and tooling
func All() []any {
	return []any{
		&CustomerGroupModel{},
		&CustomerGroupExcludedWebsiteModel{},
		&CurrencyRateModel{},
		&ProductIndexModel{},
		&SuperLinkModel{},
		&TierPriceModel{},
		&CatalogRulePriceModel{},
	}
}
