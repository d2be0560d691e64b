package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"superfoods-store/services/store-api/internal/http/handlers"
	"superfoods-store/services/store-api/internal/session"
	"superfoods-store/shared/pkg/logger"
	"superfoods-store/shared/pkg/metrics"
	"superfoods-store/shared/pkg/models"
)

type Handlers struct {
	Health   http.HandlerFunc
	Auth     *handlers.AuthHandler
	Products *handlers.ProductsHandler
	Orders   *handlers.OrdersHandler
	Cart     *handlers.CartHandler

	Sessions   session.Authenticator
	CORSOrigin string
	Log        zerolog.Logger
}

func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Requests(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware("store-api"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Handle(metrics.Path, metrics.Handler())

	r.Get("/health", h.Health)

	protect := session.Protect(h.Sessions, h.Log)
	adminOnly := session.Authorize(models.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Get("/me", h.Auth.Me)
				r.Put("/password", h.Auth.ChangePassword)
				r.Put("/addresses", h.Auth.UpdateAddresses)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{id}", h.Products.Get)
			r.Group(func(r chi.Router) {
				r.Use(protect, adminOnly)
				r.Post("/", h.Products.Create)
				r.Put("/{id}", h.Products.Update)
				r.Delete("/{id}", h.Products.Delete)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(protect)
			r.Post("/", h.Orders.Create)
			r.Get("/myorders", h.Orders.Mine)
			r.Get("/{id}", h.Orders.Get)
			r.With(adminOnly).Get("/", h.Orders.All)
			r.With(adminOnly).Put("/{id}/deliver", h.Orders.Deliver)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(protect)
			r.Get("/", h.Cart.Get)
			r.Delete("/", h.Cart.Clear)
			r.Post("/items", h.Cart.Add)
			r.Patch("/items/{id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{id}", h.Cart.Remove)
			r.Post("/checkout", h.Cart.Checkout)
		})
	})
	return r
}
