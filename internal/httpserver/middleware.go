package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"kitly/internal/domain"
	"kitly/internal/platform"
)

const sessionKey = "platformSession"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// sessionAuth authenticates embedded-admin requests: the platform issues an
// HS256 session token whose dest claim names the shop. The shop's stored
// access token turns the claim into a usable Session. No ambient session
// state; everything downstream receives the Session explicitly.
func sessionAuth(shops shopStore, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		shopDomain, err := shopFromToken(bearerToken(c), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		shop, err := shops.GetByDomain(c.Request.Context(), shopDomain)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "shop not installed"})
				return
			}
			writeError(c, err)
			c.Abort()
			return
		}

		c.Set(sessionKey, platform.Session{Shop: shop.Domain, AccessToken: shop.AccessToken})
		c.Next()
	}
}

// requireSubscription denies mutating operations unless the shop holds an
// active charge. The 402 body carries the confirmation URL of the pending
// charge so the admin UI can send the merchant to approve it.
func requireSubscription(gate subscriptionGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		state, err := gate.Ensure(c.Request.Context(), sess)
		if err != nil {
			body := gin.H{"error": "active subscription required"}
			if state.ConfirmationURL != "" {
				body["confirmation_url"] = state.ConfirmationURL
			}
			c.AbortWithStatusJSON(http.StatusPaymentRequired, body)
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) platform.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return platform.Session{}
	}
	sess, _ := v.(platform.Session)
	return sess
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func shopFromToken(token, secret string) (string, error) {
	if token == "" {
		return "", errors.New("missing token")
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	dest, _ := claims["dest"].(string)
	if dest == "" {
		return "", errors.New("missing dest claim")
	}
	if u, err := url.Parse(dest); err == nil && u.Host != "" {
		return u.Host, nil
	}
	return dest, nil
}
