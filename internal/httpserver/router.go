package httpserver

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"kitly/internal/billing"
	"kitly/internal/domain"
	"kitly/internal/inventory"
	"kitly/internal/platform"
	bundlesvc "kitly/internal/service/bundle"
)

// Deps carries the collaborators the router needs.
type Deps struct {
	Bundles       bundles
	Gate          subscriptionGate
	Shops         shopStore
	APISecret     string
	WidgetOrigins []string
}

type bundles interface {
	Create(ctx context.Context, sess platform.Session, in bundlesvc.CreateInput) (*domain.Bundle, []string, error)
	Update(ctx context.Context, sess platform.Session, id string, in bundlesvc.UpdateInput) (*domain.Bundle, []string, error)
	Delete(ctx context.Context, sess platform.Session, id string) ([]string, error)
	SetStatus(ctx context.Context, sess platform.Session, id string, status domain.BundleStatus) (*domain.Bundle, []inventory.Unavailable, error)
	Get(ctx context.Context, sess platform.Session, id string) (*domain.Bundle, error)
	List(ctx context.Context, sess platform.Session) ([]domain.Bundle, error)
	ListActive(ctx context.Context, shop string) ([]domain.Bundle, error)
	Price(products []domain.BundleProduct, discountType domain.DiscountType, discountValue decimal.Decimal) (domain.PriceBreakdown, error)
	Uninstall(ctx context.Context, shop string) error
}

type subscriptionGate interface {
	Ensure(ctx context.Context, sess platform.Session) (billing.State, error)
}

type shopStore interface {
	GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error)
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), requestID())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/onboarding", onboardingHandler)

	// Storefront endpoints are consumed by the theme widget from arbitrary
	// shop domains, so they are CORS-open and unauthenticated.
	storefront := router.Group("/")
	storefront.Use(cors.New(widgetCORSConfig(deps.WidgetOrigins)))
	storefront.POST("/bundle-price", priceHandler(deps.Bundles))
	storefront.GET("/bundle-data", storefrontBundlesHandler(deps.Bundles))

	api := router.Group("/api")
	api.POST("/webhooks/app/uninstalled", uninstallWebhookHandler(deps.Bundles, deps.APISecret, logger))

	admin := api.Group("/bundles")
	admin.Use(sessionAuth(deps.Shops, deps.APISecret))
	admin.GET("", listBundlesHandler(deps.Bundles))
	admin.GET("/:id", getBundleHandler(deps.Bundles))

	mutating := admin.Group("")
	mutating.Use(requireSubscription(deps.Gate))
	mutating.POST("", createBundleHandler(deps.Bundles))
	mutating.PUT("/:id", updateBundleHandler(deps.Bundles))
	mutating.DELETE("/:id", deleteBundleHandler(deps.Bundles))
	mutating.POST("/:id/status", setStatusHandler(deps.Bundles))

	return router, nil
}

func widgetCORSConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
