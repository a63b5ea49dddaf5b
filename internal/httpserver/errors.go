package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kitly/internal/domain"
)

// writeError is the single place domain errors become transport status
// codes. Handlers never pick codes themselves.
func writeError(c *gin.Context, err error) {
	var (
		invalidBundle   *domain.InvalidBundleError
		invalidDiscount *domain.InvalidDiscountError
		platformErr     *domain.PlatformError
		timeoutErr      *domain.TimeoutError
	)

	switch {
	case errors.As(err, &invalidBundle):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidBundle.Error()})
	case errors.As(err, &invalidDiscount):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidDiscount.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrSubscriptionRequired):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "active subscription required"})
	case errors.Is(err, domain.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "bundle was modified concurrently, reload and retry"})
	case errors.As(err, &timeoutErr):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "platform did not respond in time"})
	case errors.As(err, &platformErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "platform request failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
