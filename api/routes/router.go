package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cidadecupons/coupon-platform/api/controllers"
	"github.com/cidadecupons/coupon-platform/api/middleware"
	"github.com/cidadecupons/coupon-platform/internal/accounts"
	"github.com/cidadecupons/coupon-platform/internal/categories"
	"github.com/cidadecupons/coupon-platform/internal/clicks"
	"github.com/cidadecupons/coupon-platform/internal/coupons"
	"github.com/cidadecupons/coupon-platform/internal/plans"
	"github.com/cidadecupons/coupon-platform/internal/stats"
	"github.com/cidadecupons/coupon-platform/internal/subscriptions"
	"github.com/cidadecupons/coupon-platform/pkg/config"
	"github.com/cidadecupons/coupon-platform/pkg/logger"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the router wires into controllers.
type Services struct {
	Accounts      accounts.Service
	Plans         plans.Service
	Subscriptions subscriptions.Service
	Coupons       coupons.Service
	Clicks        clicks.Service
	Stats         stats.Service
	Categories    categories.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	svcs Services,
	dbPinger Pinger,
	redisPinger Pinger,
	promRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisPinger))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(svcs.Accounts, logg))
		r.Post("/login", controllers.AuthLogin(svcs.Accounts, logg))
		r.Get("/plans", controllers.PlansList(svcs.Plans, logg))
		r.Get("/categories", controllers.CategoriesList(svcs.Categories, logg))
		r.Post("/track-click", controllers.TrackClick(svcs.Clicks, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/my-subscription", controllers.MySubscription(svcs.Subscriptions, logg))
			r.Get("/my-coupons", controllers.MyCoupons(svcs.Coupons, logg))
			r.Post("/create-coupon", controllers.CreateCoupon(svcs.Coupons, logg))
			r.Put("/update-coupon", controllers.UpdateCoupon(svcs.Coupons, logg))
			r.Delete("/delete-coupon", controllers.DeleteCoupon(svcs.Coupons, logg))
			r.Get("/stats", controllers.Stats(svcs.Stats, logg))
		})
	})

	return r
}
