package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"kitly/internal/domain"
)

type priceRequest struct {
	Products      []bundleProductRequest `json:"products" binding:"required"`
	DiscountType  string                 `json:"discount_type" binding:"required"`
	DiscountValue decimal.Decimal        `json:"discount_value"`
}

type priceResponse struct {
	OriginalPrice  string `json:"original_price"`
	DiscountAmount string `json:"discount_amount"`
	FinalPrice     string `json:"final_price"`
}

// priceHandler serves the widget's price computation. Pure math over the
// request body; no shop state is touched, which is why it can stay public.
func priceHandler(svc bundles) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req priceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		breakdown, err := svc.Price(
			productsFromRequest(req.Products),
			domain.DiscountType(req.DiscountType),
			req.DiscountValue,
		)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, priceResponse{
			OriginalPrice:  breakdown.OriginalPrice.StringFixed(2),
			DiscountAmount: breakdown.DiscountAmount.StringFixed(2),
			FinalPrice:     breakdown.FinalPrice.StringFixed(2),
		})
	}
}
