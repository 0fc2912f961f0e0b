package dto

import (
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// TierPriceRequest is one quantity-break price of a previewed product
type TierPriceRequest struct {
	GroupID int             `json:"group_id" binding:"gte=-1" example:"1"`
	Qty     decimal.Decimal `json:"qty" example:"1"`
	Value   decimal.Decimal `json:"value" example:"8.00"`
}

// ProductRequest describes a product to price without loading it from the catalog
type ProductRequest struct {
	ID              int64              `json:"id" binding:"required,gt=0" example:"42"`
	SKU             string             `json:"sku" binding:"required,max=64" example:"MB-01"`
	TaxClassID      int64              `json:"tax_class_id" binding:"gte=0" example:"2"`
	Price           decimal.Decimal    `json:"price" example:"100.00"`
	FinalPrice      *decimal.Decimal   `json:"final_price,omitempty"`
	SpecialPrice    *decimal.Decimal   `json:"special_price,omitempty"`
	SpecialFromDate *time.Time         `json:"special_from_date,omitempty"`
	SpecialToDate   *time.Time         `json:"special_to_date,omitempty"`
	TierPrices      []TierPriceRequest `json:"tier_prices,omitempty" binding:"omitempty,dive"`
}

// ToDomain converts the request for the given store view. A missing final
// price is derived from the base price and the special price active at now.
func (r ProductRequest) ToDomain(storeID, websiteID int64, now time.Time) pricing.Product {
	p := pricing.Product{
		ID:              r.ID,
		SKU:             r.SKU,
		StoreID:         storeID,
		WebsiteID:       websiteID,
		TaxClassID:      r.TaxClassID,
		Price:           r.Price,
		SpecialPrice:    r.SpecialPrice,
		SpecialFromDate: r.SpecialFromDate,
		SpecialToDate:   r.SpecialToDate,
	}
	if r.FinalPrice != nil {
		p.FinalPrice = *r.FinalPrice
	} else {
		p.FinalPrice = p.DefaultFinalPrice(now)
	}
	if r.TierPrices != nil {
		p.TierPrices = make([]pricing.TierPrice, 0, len(r.TierPrices))
		for _, tp := range r.TierPrices {
			p.TierPrices = append(p.TierPrices, pricing.TierPrice{
				GroupID: pricing.GroupID(tp.GroupID),
				Qty:     tp.Qty,
				Value:   tp.Value,
			})
		}
	}
	return p
}

// PreviewRequest prices an ad-hoc product, optionally with variants
type PreviewRequest struct {
	StoreID     int64            `json:"store_id" binding:"gte=0" example:"1"`
	Product     ProductRequest   `json:"product"`
	SubProducts []ProductRequest `json:"sub_products,omitempty" binding:"omitempty,dive"`
	CustomData  map[string]any   `json:"custom_data,omitempty"`
}

// PriceResponse is the price payload of one product
type PriceResponse struct {
	SKU     string         `json:"sku"`
	StoreID int64          `json:"store_id"`
	Data    map[string]any `json:"data"`
}
