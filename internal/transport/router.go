package transport

import (
	"net/http"

	"mobimart-be/internal/cart"
	"mobimart-be/internal/logger"
	"mobimart-be/internal/metrics"
	"mobimart-be/internal/middleware"
	"mobimart-be/internal/order"
	"mobimart-be/internal/product"
	"mobimart-be/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type Services struct {
	Users    user.Service
	Products product.Repository
	Carts    cart.Service
	Orders   order.Service
	Metrics  *metrics.Metrics
}

// NewRouter assembles the full HTTP surface.
func NewRouter(svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.AuthMiddleware)
	r.Use(middleware.RateLimitMiddleware)
	if svc.Metrics != nil {
		r.Use(svc.Metrics.Middleware)
	}

	authH := NewAuthHandler(svc.Users)
	productH := NewProductHandler(svc.Products)
	cartH := NewCartHandler(svc.Carts)
	orderH := NewOrderHandler(svc.Orders)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productH.List)
			r.Get("/{id}", productH.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartH.Get)
			r.Post("/", cartH.AddItem)
			r.Delete("/", cartH.Clear)
			r.Put("/items/{itemId}", cartH.UpdateItem)
			r.Delete("/items/{itemId}", cartH.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderH.Create)
			r.Get("/", orderH.List)
			r.Get("/my-orders", orderH.ListMine)
			r.Get("/{id}", orderH.Get)
			r.Put("/{id}/cancel", orderH.Cancel)
			r.Put("/{id}/status", orderH.UpdateStatus)
		})
	})

	r.Get("/metrics", metrics.Handler().ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, "ok", nil)
	})

	return r
}
