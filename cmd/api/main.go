package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/ticpin-app/ticpin-backend/api/routes"
	"github.com/ticpin-app/ticpin-backend/internal/bookings"
	"github.com/ticpin-app/ticpin-backend/internal/checkout"
	"github.com/ticpin-app/ticpin-backend/internal/coupons"
	"github.com/ticpin-app/ticpin-backend/internal/listings"
	"github.com/ticpin-app/ticpin-backend/internal/notifications"
	"github.com/ticpin-app/ticpin-backend/internal/offers"
	"github.com/ticpin-app/ticpin-backend/pkg/config"
	"github.com/ticpin-app/ticpin-backend/pkg/db"
	"github.com/ticpin-app/ticpin-backend/pkg/logger"
	"github.com/ticpin-app/ticpin-backend/pkg/metrics"
	"github.com/ticpin-app/ticpin-backend/pkg/migrate"
	"github.com/ticpin-app/ticpin-backend/pkg/pubsub"
	"github.com/ticpin-app/ticpin-backend/pkg/redis"
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

	var closers []func() error
	defer func() {
		var errs error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, closers[i]())
		}
		if errs != nil {
			logg.Error(context.Background(), "error closing resources", errs)
		}
	}()

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	closers = append(closers, redisClient.Close)

	var publisher *notifications.Publisher
	if cfg.PubSub.Enabled() {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		closers = append(closers, pubsubClient.Close)

		publisher, err = notifications.NewPublisher(pubsubClient, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create booking publisher", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "pubsub project not configured, booking events disabled")
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	listingsService, err := listings.NewService(listings.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create listings service", err)
		os.Exit(1)
	}

	offersService, err := offers.NewService(offers.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create offers service", err)
		os.Exit(1)
	}

	couponsService, err := coupons.NewService(coupons.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons service", err)
		os.Exit(1)
	}

	bookingsService, err := bookings.NewService(
		bookings.NewRepository(dbClient.DB()),
		dbClient,
		listingsService,
		couponsService,
		publisher,
		bookingMetrics,
		logg,
		cfg.Checkout.BookingFeePercent,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create bookings service", err)
		os.Exit(1)
	}

	sessionStore, err := checkout.NewRedisStore(redisClient, cfg.Checkout.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout session store", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		sessionStore,
		offersService,
		couponsService,
		bookingsService,
		cfg.Checkout.BookingFeePercent,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Registry:    registry,
			HTTPMetrics: httpMetrics,
			Listings:    listingsService,
			Offers:      offersService,
			Coupons:     couponsService,
			Checkout:    checkoutService,
			Bookings:    bookingsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
