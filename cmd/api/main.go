package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cidadecupons/coupon-platform/api/routes"
	"github.com/cidadecupons/coupon-platform/internal/accounts"
	"github.com/cidadecupons/coupon-platform/internal/categories"
	"github.com/cidadecupons/coupon-platform/internal/clicks"
	"github.com/cidadecupons/coupon-platform/internal/coupons"
	"github.com/cidadecupons/coupon-platform/internal/plans"
	"github.com/cidadecupons/coupon-platform/internal/stats"
	"github.com/cidadecupons/coupon-platform/internal/subscriptions"
	"github.com/cidadecupons/coupon-platform/pkg/config"
	"github.com/cidadecupons/coupon-platform/pkg/db"
	"github.com/cidadecupons/coupon-platform/pkg/logger"
	"github.com/cidadecupons/coupon-platform/pkg/migrate"
	"github.com/cidadecupons/coupon-platform/pkg/redis"
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

	conn := dbClient.DB()

	planSvc, err := plans.NewService(plans.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create plan service", err)
		os.Exit(1)
	}
	subscriptionSvc, err := subscriptions.NewService(subscriptions.NewRepository(conn), plans.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}
	accountSvc, err := accounts.NewService(dbClient, accounts.NewRepository(conn), subscriptionSvc, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create account service", err)
		os.Exit(1)
	}
	categorySvc, err := categories.NewService(categories.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}
	couponSvc, err := coupons.NewService(coupons.NewRepository(conn), subscriptionSvc, categorySvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}
	clickSvc, err := clicks.NewService(dbClient, clicks.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create click service", err)
		os.Exit(1)
	}
	statsSvc, err := stats.NewService(coupons.NewRepository(conn), clicks.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

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
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Services{
			Accounts:      accountSvc,
			Plans:         planSvc,
			Subscriptions: subscriptionSvc,
			Coupons:       couponSvc,
			Clicks:        clickSvc,
			Stats:         statsSvc,
			Categories:    categorySvc,
		}, dbClient, redisClient, promRegistry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
