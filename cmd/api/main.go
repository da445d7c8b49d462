package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/leadcollect/cart-recovery/api/routes"
	"github.com/leadcollect/cart-recovery/internal/carts"
	"github.com/leadcollect/cart-recovery/internal/commerce"
	"github.com/leadcollect/cart-recovery/internal/coupons"
	"github.com/leadcollect/cart-recovery/internal/events"
	"github.com/leadcollect/cart-recovery/internal/restore"
	"github.com/leadcollect/cart-recovery/internal/settings"
	"github.com/leadcollect/cart-recovery/internal/webhook"
	"github.com/leadcollect/cart-recovery/pkg/config"
	"github.com/leadcollect/cart-recovery/pkg/db"
	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/metrics"
	"github.com/leadcollect/cart-recovery/pkg/migrate"
	"github.com/leadcollect/cart-recovery/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	engineClient, err := commerce.NewClient(cfg.Commerce)
	if err != nil {
		logg.Error(context.Background(), "failed to create commerce client", err)
		os.Exit(1)
	}

	settingsService := settings.NewService(settings.NewRepo(dbClient.DB()), logg)
	if err := settingsService.SeedDefaults(context.Background(), cfg.Webhook, cfg.Coupon); err != nil {
		logg.Error(context.Background(), "failed to seed channel settings", err)
		os.Exit(1)
	}

	// The event router resolves the delivery endpoint per event from channel
	// settings, so operator edits take effect without a restart.
	deliveryMetrics := metrics.NewDeliveryMetrics(prometheus.DefaultRegisterer)
	deliverer := webhook.New(cfg.Webhook, logg, deliveryMetrics)

	cartService := carts.NewService(carts.NewRepo(dbClient.DB()), logg)
	couponGateway := coupons.NewGateway(engineClient, coupons.NewGrantRepo(dbClient.DB()), settingsService, logg)
	router := events.NewRouter(deliverer, settingsService, couponGateway, cartService, engineClient, redisClient, cfg.Eventing.IdempotencyTTL, logg)
	restoreService := restore.NewService(cartService, engineClient, redisClient, cfg.Restore.CartPageURL, cfg.Restore.MarkerTTL, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, cartService, router, restoreService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
