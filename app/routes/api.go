package routes

import (
	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// API holds what the /api routes dispatch to.
type API struct {
	Products *controllers.ProductController
	Payments *controllers.PaymentController
	// Limiter throttles checkout and verify. Nil disables it.
	Limiter middleware.Limiter
	// TrustedProxies may set X-Forwarded-For for the limiter.
	TrustedProxies []string
}

func RegisterAPI(r *router.Router, a API) {
	api := r.Group("/api")

	products := api.Group("/products")
	products.Get("/", "products.index", ctx.Wrap(a.Products.Index))
	products.Get("/{id}", "products.show", ctx.Wrap(a.Products.Show))
	products.Post("/recommendations", "products.recommendations", ctx.Wrap(a.Products.Recommend))
	products.Post("/recommendations/similar", "products.similar", ctx.Wrap(a.Products.Similar))

	shopper := products.Group("", middleware.Authenticate)
	shopper.Put("/wishlist", "products.wishlist", ctx.Wrap(a.Products.Wishlist))
	shopper.Put("/rating", "products.rating", ctx.Wrap(a.Products.Rate))
	shopper.Post("/stock/check", "products.stock", ctx.Wrap(a.Products.CheckStock))

	// Admin capability is checked by the catalog service.
	shopper.Post("/", "products.store", ctx.Wrap(a.Products.Create))
	shopper.Put("/{id}", "products.update", ctx.Wrap(a.Products.Update))
	shopper.Delete("/{id}", "products.destroy", ctx.Wrap(a.Products.Delete))
	shopper.Post("/{id}/images", "products.images", ctx.Wrap(a.Products.UploadImages))

	payments := api.Group("/payments")
	payments.Post("/webhook", "payments.webhook", ctx.Wrap(a.Payments.Webhook))

	buyer := payments.Group("", middleware.Authenticate)
	if a.Limiter != nil {
		buyer = payments.Group("", middleware.Authenticate, middleware.RateLimit(a.Limiter, a.TrustedProxies))
	}
	buyer.Post("/checkout", "payments.checkout", ctx.Wrap(a.Payments.Checkout))
	buyer.Post("/verify", "payments.verify", ctx.Wrap(a.Payments.Verify))
}
