// Package http is the thin JSON adapter over the application services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	authapp "github.com/dmehra2102/storefront-core/internal/auth/application"
	cartapp "github.com/dmehra2102/storefront-core/internal/cart/application"
	checkoutapp "github.com/dmehra2102/storefront-core/internal/checkout/application"
	discountapp "github.com/dmehra2102/storefront-core/internal/discount/application"
	orderapp "github.com/dmehra2102/storefront-core/internal/order/application"
	paymentapp "github.com/dmehra2102/storefront-core/internal/payment/application"
	productapp "github.com/dmehra2102/storefront-core/internal/product/application"
	userapp "github.com/dmehra2102/storefront-core/internal/user/application"
	"github.com/dmehra2102/storefront-core/pkg/metrics"
)

type Deps struct {
	Auth      *authapp.Service
	Users     *userapp.Service
	Products  *productapp.Service
	Discounts *discountapp.Service
	Carts     *cartapp.Service
	Checkout  *checkoutapp.Service
	Orders    *orderapp.Service
	Payments  *paymentapp.Service
	// Authn verifies bearer tokens; Auth is used when nil.
	Authn   Authenticator
	Metrics *metrics.Metrics
}

type Handler struct {
	log    *slog.Logger
	deps   Deps
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, d Deps) *Handler {
	if d.Authn == nil && d.Auth != nil {
		d.Authn = d.Auth
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewNop()
	}
	return &Handler{log: log, deps: d, tracer: otel.Tracer("storefront-http")}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, instrument(h.deps.Metrics, h.tracer))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}) })
	r.Handle("/metrics", metrics.Handler())

	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Post("/webhooks/payments/{provider}", h.paymentNotification)

	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/discounts/code/{code}", h.getDiscountByCode)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate(h.deps.Authn))

		r.Get("/auth/me", h.me)
		r.Post("/auth/password", h.changePassword)
		r.Post("/auth/verify-email", h.verifyEmail)

		r.Get("/users/me", h.getProfile)
		r.Patch("/users/me", h.updateProfile)
		r.Put("/users/me/email", h.changeEmail)
		r.Delete("/users/me", h.deleteAccount)

		r.Post("/products", h.createProduct)
		r.Patch("/products/{id}", h.updateProduct)
		r.Put("/products/{id}/price", h.changePrice)
		r.Post("/products/{id}/stock", h.adjustStock)
		r.Put("/products/{id}/status", h.changeProductStatus)
		r.Delete("/products/{id}", h.deleteProduct)

		r.Post("/discounts", h.createDiscount)
		r.Get("/discounts/{id}", h.getDiscount)
		r.Patch("/discounts/{id}", h.updateDiscount)
		r.Delete("/discounts/{id}", h.deleteDiscount)
		r.Post("/discounts/{id}/{action}", h.discountAction)
		r.Post("/discounts/quote", h.quoteDiscount)

		r.Get("/cart", h.getCart)
		r.Delete("/cart", h.clearCart)
		r.Post("/cart/items", h.addCartItem)
		r.Patch("/cart/items/{itemID}", h.updateCartItem)
		r.Delete("/cart/items/{itemID}", h.removeCartItem)

		r.Post("/checkout", h.checkout)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/cancel", h.cancelOrder)
		r.Get("/orders/{id}/payments", h.orderPayments)
	})
	return r
}
