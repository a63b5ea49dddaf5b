package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"kitly/internal/domain"
	bundlesvc "kitly/internal/service/bundle"
)

type bundleProductRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	VariantID string          `json:"variant_id"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type bundleRequest struct {
	Title         string                 `json:"title" binding:"required"`
	Products      []bundleProductRequest `json:"products" binding:"required"`
	DiscountType  string                 `json:"discount_type" binding:"required"`
	DiscountValue decimal.Decimal        `json:"discount_value"`
	Version       int                    `json:"version"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type bundleResponse struct {
	Bundle   bundleView `json:"bundle"`
	Warnings []string   `json:"warnings,omitempty"`
}

type bundleView struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	Products      []domain.BundleProduct `json:"products"`
	DiscountType  string                 `json:"discount_type"`
	DiscountValue string                 `json:"discount_value"`
	Status        string                 `json:"status"`
	Version       int                    `json:"version"`
	CreatedAt     string                 `json:"created_at"`
	UpdatedAt     string                 `json:"updated_at"`
}

func toBundleView(b domain.Bundle) bundleView {
	products := b.Products
	if products == nil {
		products = []domain.BundleProduct{}
	}
	return bundleView{
		ID:            b.ID,
		Title:         b.Title,
		Products:      products,
		DiscountType:  string(b.DiscountType),
		DiscountValue: b.DiscountValue.StringFixed(2),
		Status:        string(b.Status),
		Version:       b.Version,
		CreatedAt:     b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     b.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func productsFromRequest(in []bundleProductRequest) []domain.BundleProduct {
	products := make([]domain.BundleProduct, 0, len(in))
	for _, p := range in {
		qty := p.Quantity
		if qty == 0 {
			qty = 1
		}
		products = append(products, domain.BundleProduct{
			ProductID: p.ProductID,
			VariantID: p.VariantID,
			Title:     p.Title,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  qty,
		})
	}
	return products
}

func createBundleHandler(svc bundles) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bundleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		b, warnings, err := svc.Create(c.Request.Context(), currentSession(c), bundlesvc.CreateInput{
			Title:         req.Title,
			Products:      productsFromRequest(req.Products),
			DiscountType:  domain.DiscountType(req.DiscountType),
			DiscountValue: req.DiscountValue,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, bundleResponse{Bundle: toBundleView(*b), Warnings: warnings})
	}
}

func updateBundleHandler(svc bundles) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req bundleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		b, warnings, err := svc.Update(c.Request.Context(), currentSession(c), c.Param("id"), bundlesvc.UpdateInput{
			Version:       req.Version,
			Title:         req.Title,
			Products:      productsFromRequest(req.Products),
			DiscountType:  domain.DiscountType(req.DiscountType),
			DiscountValue: req.DiscountValue,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, bundleResponse{Bundle: toBundleView(*b), Warnings: warnings})
	}
}

func deleteBundleHandler(svc bundles) gin.HandlerFunc {
	return func(c *gin.Context) {
		warnings, err := svc.Delete(c.Request.Context(), currentSession(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		resp := gin.H{"success": true}
		if len(warnings) > 0 {
			resp["warnings"] = warnings
		}
		c.JSON(http.StatusOK, resp)
	}
}

func setStatusHandler(svc bundles) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		b, unavailable, err := svc.SetStatus(c.Request.Context(), currentSession(c), c.Param("id"), domain.BundleStatus(req.Status))
		if err != nil {
			writeError(c, err)
			return
		}
		if len(unavailable) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":             "some items are unavailable",
				"unavailable_items": unavailable,
			})
			return
		}
		c.JSON(http.StatusOK, bundleResponse{Bundle: toBundleView(*b)})
	}
}

func getBundleHandler(svc bundles) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := svc.Get(c.Request.Context(), currentSession(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, bundleResponse{Bundle: toBundleView(*b)})
	}
}

func listBundlesHandler(svc bundles) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.List(c.Request.Context(), currentSession(c))
		if err != nil {
			writeError(c, err)
			return
		}
		views := make([]bundleView, 0, len(list))
		for _, b := range list {
			views = append(views, toBundleView(b))
		}
		c.JSON(http.StatusOK, gin.H{"bundles": views})
	}
}
