package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/catalogsync/indexer/internal/domain/pricing"
	"github.com/catalogsync/indexer/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ProductLookup loads catalog products for a store view
type ProductLookup interface {
	FindBySKU(ctx context.Context, storeID int64, sku string) (*pricing.Product, error)
	FindChildren(ctx context.Context, storeID, parentID int64) ([]pricing.Product, error)
}

// PriceDataComputer resolves a product's price payload
type PriceDataComputer interface {
	ComputePriceData(ctx context.Context, product *pricing.Product, existing map[string]any, subProducts []pricing.Product) (map[string]any, error)
}

// WebsiteLocator resolves the website of a store view
type WebsiteLocator interface {
	WebsiteID(storeID int64) (int64, error)
}

// PriceHandler serves price previews
type PriceHandler struct {
	products ProductLookup
	resolver PriceDataComputer
	stores   WebsiteLocator
	now      func() time.Time
}

// NewPriceHandler creates a new PriceHandler
func NewPriceHandler(products ProductLookup, resolver PriceDataComputer, stores WebsiteLocator) *PriceHandler {
	return &PriceHandler{
		products: products,
		resolver: resolver,
		stores:   stores,
		now:      time.Now,
	}
}

// RegisterRoutes registers the price routes
func (h *PriceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stores/:store_id/products/:sku/prices", h.GetProductPrices)
	rg.POST("/prices/preview", h.Preview)
}

// GetProductPrices godoc
//
//	@Summary	Price payload of a catalog product
//	@Tags		prices
//	@Produce	json
//	@Param		store_id	path		int		true	"Store view ID"
//	@Param		sku			path		string	true	"Product SKU"
//	@Success	200			{object}	dto.Response{data=dto.PriceResponse}
//	@Failure	404			{object}	dto.Response
//	@Failure	422			{object}	dto.Response
//	@Failure	502			{object}	dto.Response
//	@Router		/stores/{store_id}/products/{sku}/prices [get]
func (h *PriceHandler) GetProductPrices(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("store_id"), 10, 64)
	if err != nil || storeID < 0 {
		badRequest(c, "store_id must be a non-negative integer")
		return
	}
	ctx := c.Request.Context()

	product, err := h.products.FindBySKU(ctx, storeID, c.Param("sku"))
	if err != nil {
		fail(c, err)
		return
	}
	children, err := h.products.FindChildren(ctx, storeID, product.ID)
	if err != nil {
		fail(c, err)
		return
	}

	data, err := h.resolver.ComputePriceData(ctx, product, nil, children)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, dto.PriceResponse{SKU: product.SKU, StoreID: storeID, Data: data})
}

// Preview godoc
//
//	@Summary	Price an ad-hoc product
//	@Tags		prices
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.PreviewRequest	true	"Product to price"
//	@Success	200		{object}	dto.Response{data=dto.PriceResponse}
//	@Failure	400		{object}	dto.Response
//	@Failure	422		{object}	dto.Response
//	@Router		/prices/preview [post]
func (h *PriceHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	websiteID, err := h.stores.WebsiteID(req.StoreID)
	if err != nil {
		fail(c, err)
		return
	}

	now := h.now()
	product := req.Product.ToDomain(req.StoreID, websiteID, now)
	subProducts := make([]pricing.Product, 0, len(req.SubProducts))
	for _, sp := range req.SubProducts {
		subProducts = append(subProducts, sp.ToDomain(req.StoreID, websiteID, now))
	}

	data, err := h.resolver.ComputePriceData(c.Request.Context(), &product, req.CustomData, subProducts)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, dto.PriceResponse{SKU: product.SKU, StoreID: req.StoreID, Data: data})
}
