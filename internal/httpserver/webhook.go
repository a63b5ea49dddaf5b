package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	shopDomainHeader = "X-Shop-Domain"
	hmacHeader       = "X-Hmac-Sha256"
)

// uninstallWebhookHandler tears down all state for an uninstalled shop.
// Platform-initiated: no session, no subscription gate. The handler is
// replay-safe, so a redelivered webhook answers 200 again.
func uninstallWebhookHandler(svc bundles, secret string, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		if !validHMAC(body, c.GetHeader(hmacHeader), secret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
			return
		}

		shop := c.GetHeader(shopDomainHeader)
		if shop == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing shop domain header"})
			return
		}

		if err := svc.Uninstall(c.Request.Context(), shop); err != nil {
			logger.Printf("uninstall webhook shop=%s failed: %v", shop, err)
			// Non-2xx makes the platform redeliver; teardown is replay-safe
			// so that is the right behavior here.
			writeError(c, err)
			return
		}
		c.Status(http.StatusOK)
	}
}

func validHMAC(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
