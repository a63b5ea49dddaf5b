package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kitly/internal/billing"
	"kitly/internal/config"
	"kitly/internal/db"
	"kitly/internal/httpserver"
	"kitly/internal/inventory"
	"kitly/internal/platform"
	bundlerepo "kitly/internal/repository/bundle"
	shoprepo "kitly/internal/repository/shop"
	bundlesvc "kitly/internal/service/bundle"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	bundleRepo := bundlerepo.NewPostgres(dbpool, logger)
	shopRepo := shoprepo.NewPostgres(dbpool)

	clientOpts := []platform.Option{
		platform.WithAPIVersion(cfg.PlatformAPIVersion),
		platform.WithLogger(logger),
	}
	if cfg.PlatformBaseURL != "" {
		clientOpts = append(clientOpts, platform.WithBaseURL(cfg.PlatformBaseURL))
	}
	client := platform.NewClient(clientOpts...)

	gate := billing.NewGate(client, billing.Plan{
		Name:      cfg.BillingPlanName,
		Price:     cfg.BillingPlanPrice,
		TrialDays: cfg.BillingTrialDays,
		Test:      cfg.BillingTest,
	}, cfg.AppHost+"/onboarding", logger)

	availability := inventory.New(client, logger)
	bundleService := bundlesvc.New(bundleRepo, shopRepo, client, availability, cfg.ValidateInventoryOnPublish, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Bundles:       bundleService,
		Gate:          gate,
		Shops:         shopRepo,
		APISecret:     cfg.PlatformAPISecret,
		WidgetOrigins: cfg.WidgetOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
