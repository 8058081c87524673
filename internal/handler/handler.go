// Package handler exposes the storefront API over HTTP: a uniform
// {ok, data, error} envelope on top of the domain services.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/rohilkohli/shids/internal/domain/analytics"
	"github.com/rohilkohli/shids/internal/domain/capture"
	"github.com/rohilkohli/shids/internal/domain/content"
	"github.com/rohilkohli/shids/internal/domain/discount"
	"github.com/rohilkohli/shids/internal/domain/order"
	"github.com/rohilkohli/shids/internal/domain/product"
	"github.com/rohilkohli/shids/internal/domain/user"
)

// Config holds non-dependency handler configuration.
type Config struct {
	// AllowedOrigins feeds the CORS layer. Empty means same-origin only.
	AllowedOrigins []string
	// SecureCookies marks session cookies Secure; enable behind TLS.
	SecureCookies bool
}

// Handler wires the domain services into the chi router.
type Handler struct {
	cfg Config

	users      *user.Service
	orders     *order.Service
	products   product.Repository
	discounts  discount.Repository
	categories content.CategoryRepository
	hero       content.HeroRepository
	reviews    content.ReviewRepository
	capture    capture.Repository
	analytics  analytics.Repository
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	users *user.Service,
	orders *order.Service,
	products product.Repository,
	discounts discount.Repository,
	categories content.CategoryRepository,
	hero content.HeroRepository,
	reviews content.ReviewRepository,
	captureRepo capture.Repository,
	analyticsRepo analytics.Repository,
) *Handler {
	return &Handler{
		cfg:        cfg,
		users:      users,
		orders:     orders,
		products:   products,
		discounts:  discounts,
		categories: categories,
		hero:       hero,
		reviews:    reviews,
		capture:    captureRepo,
		analytics:  analyticsRepo,
	}
}

// Routes mounts the API under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(h.withIdentity)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)
		r.Post("/auth/logout", h.logout)
		r.Get("/auth/me", h.me)

		r.Get("/products", h.listProducts)
		r.Get("/products/{token}", h.getProduct)
		r.With(h.requireAdmin).Post("/products", h.createProduct)
		r.With(h.requireAdmin).Patch("/products/{token}", h.updateProduct)
		r.With(h.requireAdmin).Delete("/products/{token}", h.deleteProduct)

		r.Get("/discounts", h.listDiscounts)
		r.With(h.requireAdmin).Post("/discounts", h.createDiscount)
		r.With(h.requireAdmin).Patch("/discounts/{token}", h.updateDiscount)
		r.With(h.requireAdmin).Delete("/discounts/{token}", h.deleteDiscount)

		r.Post("/orders", h.createOrder)
		r.Post("/orders/track", h.trackOrder)
		r.Get("/orders/track", h.trackOrderByToken)
		r.With(h.requireAdmin).Get("/orders", h.listOrders)
		r.Get("/orders/{code}", h.getOrder)
		r.With(h.requireAdmin).Patch("/orders/{code}", h.updateOrder)
		r.With(h.requireAdmin).Delete("/orders/{code}", h.deleteOrder)

		r.Get("/categories", h.listCategories)
		r.With(h.requireAdmin).Post("/categories", h.createCategory)
		r.With(h.requireAdmin).Patch("/categories/{id}", h.updateCategory)
		r.With(h.requireAdmin).Delete("/categories/{id}", h.deleteCategory)

		r.Get("/hero", h.listHeroSlots)
		r.With(h.requireAdmin).Post("/hero", h.createHeroSlot)
		r.With(h.requireAdmin).Delete("/hero/{id}", h.deleteHeroSlot)

		r.Get("/reviews", h.listReviews)
		r.Post("/reviews", h.createReview)

		r.Post("/newsletter", h.subscribe)
		r.With(h.requireAdmin).Get("/newsletter", h.listSubscribers)
		r.Post("/contact", h.contact)
		r.With(h.requireAdmin).Get("/contact", h.listMessages)

		r.With(h.requireAdmin).Get("/admin/analytics", h.salesOverview)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	return r
}
