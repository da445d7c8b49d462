package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/leadcollect/cart-recovery/internal/carts"
	"github.com/leadcollect/cart-recovery/internal/commerce"
	"github.com/leadcollect/cart-recovery/internal/coupons"
	"github.com/leadcollect/cart-recovery/internal/cron"
	"github.com/leadcollect/cart-recovery/internal/events"
	"github.com/leadcollect/cart-recovery/internal/normalizer"
	"github.com/leadcollect/cart-recovery/internal/settings"
	"github.com/leadcollect/cart-recovery/internal/sweeper"
	"github.com/leadcollect/cart-recovery/internal/webhook"
	"github.com/leadcollect/cart-recovery/pkg/config"
	"github.com/leadcollect/cart-recovery/pkg/db"
	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/metrics"
	"github.com/leadcollect/cart-recovery/pkg/migrate"
	"github.com/leadcollect/cart-recovery/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sweeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sweeper",
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

	// The engine's storage layout is fixed for the life of the process, so
	// the payload schema is probed once at startup.
	variant, err := engineClient.ProbeSchema(context.Background())
	if err != nil {
		logg.Error(context.Background(), "failed to probe cart schema", err)
		os.Exit(1)
	}
	ctx := logg.WithField(context.Background(), "schema", string(variant))
	logg.Info(ctx, "cart schema detected")

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

	sweepJob := sweeper.NewJob(engineClient, normalizer.New(variant, logg), cartService, router, cfg.Sweep, logg)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("sweep"), cfg.Sweep.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Jobs:     []cron.Job{sweepJob},
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Sweep.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithField(runCtx, "env", cfg.App.Env)
	logg.Info(runCtx, "starting sweeper")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "sweeper stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "sweeper shutting down gracefully")
}
