// Package kernel assembles the storefront's HTTP handler from its
// dependencies. Boot builds those dependencies from config; tests build
// them by hand with the memory store and a fake gateway.
package kernel

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/payment"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/schedule"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Store   *repositories.Store
	Gateway payment.Gateway
	Ledger  cache.Ledger
	// Limiter throttles payment calls; nil disables it.
	Limiter  middleware.Limiter
	Disk     storage.Disk
	Uploads  *workerpool.Pool
	Currency string
	Origins  []string
	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []string
	// StaticRoot, when set, is served under /storage.
	StaticRoot string
	// Jobs sweeps the in-memory ledger and limiter. Only Boot starts it.
	Jobs *schedule.Scheduler
}

// HTTPKernel owns the router and the event bus wired to it.
type HTTPKernel struct {
	router *router.Router
	bus    *event.Bus
}

// New wires services, controllers and middleware.
//
// Global middleware, outermost first: metrics, recovery, request id,
// logger, CORS.
func New(d Deps) *HTTPKernel {
	bus := event.NewBus()

	catalog := services.NewCatalogService(d.Store.Products, d.Store.Colors, d.Disk)
	if d.Uploads != nil {
		catalog.UseUploadPool(d.Uploads)
	}
	stock := services.NewStockService(d.Store.Products)
	services.ListenForPayments(bus, stock, d.Ledger)

	products := controllers.NewProductController(
		catalog,
		services.NewRecommendationService(d.Store.Products, catalog),
		stock,
		services.NewRatingService(d.Store.Products),
		services.NewWishlistService(d.Store.Users, d.Store.Products),
	)
	payments := controllers.NewPaymentController(
		services.NewPaymentService(d.Gateway, d.Ledger, bus, d.Currency),
	)

	r := router.New()
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.StorefrontCORS(d.Origins)))

	r.Get("/metrics", "metrics", metrics.Handler())
	if d.StaticRoot != "" {
		r.Static("/storage", http.FileServer(http.Dir(d.StaticRoot)))
	}

	routes.RegisterAPI(r, routes.API{
		Products:       products,
		Payments:       payments,
		Limiter:        d.Limiter,
		TrustedProxies: d.TrustedProxies,
	})

	return &HTTPKernel{router: r, bus: bus}
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Routes() []router.Route { return k.router.Routes() }

// Bus is the event bus payment settlement is published on.
func (k *HTTPKernel) Bus() *event.Bus { return k.bus }
