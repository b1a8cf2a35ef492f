// Package httpapi assembles the marketplace HTTP API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joao-fontenele/marketplace/internal/auth"
	"github.com/joao-fontenele/marketplace/internal/carts"
	"github.com/joao-fontenele/marketplace/internal/catalog"
	"github.com/joao-fontenele/marketplace/internal/domain"
	"github.com/joao-fontenele/marketplace/internal/httpx"
	"github.com/joao-fontenele/marketplace/internal/inventory"
	"github.com/joao-fontenele/marketplace/internal/orders"
	"github.com/joao-fontenele/marketplace/internal/telemetry"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Auth      *auth.Authenticator
	Carts     *carts.Handler
	Orders    *orders.Handler
	Catalog   *catalog.Handler
	Inventory *inventory.Handler
	DB        Pinger
	Metrics   http.Handler
	Logger    *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.RouteTag)

	r.Get("/healthz", healthz(d.DB, d.Logger))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/products", d.Catalog.HandleListPublic)
		r.Get("/products/{id}", d.Catalog.HandleGetProduct)
		r.Get("/inventory/{productId}", d.Inventory.HandleGetStock)
	})

	r.Route("/api/buyer", func(r chi.Router) {
		r.Use(d.Auth.Authenticate, d.Auth.RequireRole(domain.RoleBuyer))

		r.Get("/cart", d.Carts.HandleGet)
		r.Post("/cart/items", d.Carts.HandleAddItem)
		r.Put("/cart/items", d.Carts.HandleSetQuantity)
		r.Delete("/cart/items/{productId}", d.Carts.HandleRemoveItem)
		r.Delete("/cart", d.Carts.HandleClear)

		r.Post("/orders/checkout", d.Orders.HandleCheckout)
		r.Get("/orders", d.Orders.HandleListMine)
		r.Get("/orders/{id}", d.Orders.HandleGetMine)
	})

	r.Route("/api/seller", func(r chi.Router) {
		r.Use(d.Auth.Authenticate, d.Auth.RequireRole(domain.RoleSeller))

		r.Post("/products", d.Catalog.HandleCreate)
		r.Get("/products", d.Catalog.HandleListMine)
		r.Put("/products/{id}", d.Catalog.HandleUpdateBySeller)
		r.Delete("/products/{id}", d.Catalog.HandleArchiveBySeller)
		r.Put("/inventory/{productId}", d.Inventory.HandleSetBySeller)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(d.Auth.Authenticate, d.Auth.RequireRole(domain.RoleAdmin))

		r.Get("/orders/{id}", d.Orders.HandleGetAny)
		r.Put("/orders/{id}/status", d.Orders.HandleUpdateStatus)
		r.Put("/products/{id}", d.Catalog.HandleUpdateByAdmin)
		r.Delete("/products/{id}", d.Catalog.HandleArchiveByAdmin)
		r.Put("/inventory/{productId}", d.Inventory.HandleSetByAdmin)
	})

	return r
}

func healthz(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logger.ErrorContext(r.Context(), "health check failed", "error", err)
				httpx.WriteError(w, logger, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		httpx.WriteJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}
