package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ticpin-app/ticpin-backend/api/controllers"
	"github.com/ticpin-app/ticpin-backend/api/middleware"
	bookingsvc "github.com/ticpin-app/ticpin-backend/internal/bookings"
	checkoutsvc "github.com/ticpin-app/ticpin-backend/internal/checkout"
	couponsvc "github.com/ticpin-app/ticpin-backend/internal/coupons"
	listingsvc "github.com/ticpin-app/ticpin-backend/internal/listings"
	offersvc "github.com/ticpin-app/ticpin-backend/internal/offers"
	"github.com/ticpin-app/ticpin-backend/pkg/config"
	"github.com/ticpin-app/ticpin-backend/pkg/db"
	"github.com/ticpin-app/ticpin-backend/pkg/enums"
	"github.com/ticpin-app/ticpin-backend/pkg/logger"
	"github.com/ticpin-app/ticpin-backend/pkg/metrics"
	"github.com/ticpin-app/ticpin-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics

	// Idempotency overrides the replay store; when unset it is derived
	// from Redis.
	Idempotency redis.IdempotencyStore

	Listings listingsvc.Service
	Offers   offersvc.Service
	Coupons  couponsvc.Service
	Checkout checkoutsvc.Service
	Bookings bookingsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	replayStore := deps.Idempotency
	if replayStore == nil {
		replayStore = idempotencyStore(deps.Redis)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(deps)))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(replayStore, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.ListingsList(deps.Listings, logg))
			r.Get("/{listingId}", controllers.ListingDetail(deps.Listings, logg))
		})

		r.Get("/offers", controllers.OffersList(deps.Offers, logg))

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.CouponsList(deps.Coupons, logg))
			r.Post("/validate", controllers.CouponValidate(deps.Coupons, logg))
		})

		r.Route("/checkout/session", func(r chi.Router) {
			r.Post("/", controllers.CheckoutCreate(deps.Checkout, logg))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.CheckoutGet(deps.Checkout, logg))
				r.Delete("/", controllers.CheckoutDelete(deps.Checkout, logg))
				r.Patch("/items/{itemIndex}", controllers.CheckoutUpdateQuantity(deps.Checkout, logg))
				r.Delete("/items/{itemIndex}", controllers.CheckoutRemoveItem(deps.Checkout, logg))
				r.Post("/offer", controllers.CheckoutApplyOffer(deps.Checkout, logg))
				r.Delete("/offer", controllers.CheckoutRemoveOffer(deps.Checkout, logg))
				r.Post("/coupon", controllers.CheckoutApplyCoupon(deps.Checkout, logg))
				r.Delete("/coupon", controllers.CheckoutRemoveCoupon(deps.Checkout, logg))
				r.Post("/continue", controllers.CheckoutContinue(deps.Checkout, logg))
				r.Post("/back", controllers.CheckoutBack(deps.Checkout, logg))
				r.Post("/submit", controllers.CheckoutSubmit(deps.Checkout, logg))
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/{category}", controllers.BookingCreate(deps.Bookings, logg))
			r.Get("/{category}/availability/{listingId}", controllers.BookingAvailability(deps.Bookings, logg))
			r.Get("/id/{bookingId}", controllers.BookingDetail(deps.Bookings, logg))
		})
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(replayStore, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.AdminListingList(deps.Listings, logg))
			r.Post("/", controllers.AdminListingCreate(deps.Listings, logg))
			r.Put("/{listingId}", controllers.AdminListingUpdate(deps.Listings, logg))
			r.Delete("/{listingId}", controllers.AdminListingDelete(deps.Listings, logg))
		})

		r.Route("/offers", func(r chi.Router) {
			r.Get("/", controllers.AdminOfferList(deps.Offers, logg))
			r.Post("/", controllers.AdminOfferCreate(deps.Offers, logg))
			r.Put("/{offerId}", controllers.AdminOfferUpdate(deps.Offers, logg))
			r.Delete("/{offerId}", controllers.AdminOfferDelete(deps.Offers, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminCouponList(deps.Coupons, logg))
			r.Post("/", controllers.AdminCouponCreate(deps.Coupons, logg))
			r.Put("/{couponId}", controllers.AdminCouponUpdate(deps.Coupons, logg))
			r.Delete("/{couponId}", controllers.AdminCouponDelete(deps.Coupons, logg))
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", controllers.AdminBookingList(deps.Bookings, logg))
			r.Post("/{bookingId}/cancel", controllers.AdminBookingCancel(deps.Bookings, logg))
		})
	})

	return r
}

// idempotencyStore avoids handing the middleware a typed-nil interface when
// Redis is not wired.
func idempotencyStore(c *redis.Client) redis.IdempotencyStore {
	if c == nil {
		return nil
	}
	return c
}

func readinessDeps(deps Deps) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["postgres"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
