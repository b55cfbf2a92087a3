package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MiniCart/internal/admin"
	"MiniCart/internal/cart"
	"MiniCart/internal/catalog"
	"MiniCart/internal/kvstore"
	"MiniCart/internal/order"
	"MiniCart/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	// RateLimit, when set, guards the mutating cart routes.
	RateLimit *kit.IPRateLimiter
}

type Server struct {
	Catalog *catalog.Store
	Cart    *cart.Store
	Orders  *order.Repository
	Admin   *admin.Sync
	KV      kvstore.Store
	Log     *zap.Logger

	metrics *kit.Metrics
}

// NewHandler builds the storefront router. adminRoutes, when non-nil,
// is mounted under /admin.
func NewHandler(s *Server, adminRoutes http.Handler, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if deps.Registry != nil {
		s.metrics = kit.NewMetrics(deps.Registry)
		r.Use(s.metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.KV.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.handleListProducts)
	r.Get("/cart", s.handleGetCart)
	r.Get("/cart/saved", s.handleSavedItems)
	r.Get("/orders/{id}", s.handleGetOrder)

	r.Group(func(mr chi.Router) {
		if deps.RateLimit != nil {
			mr.Use(deps.RateLimit.Middleware)
		}
		mr.Post("/cart/items", s.handleAddItem)
		mr.Patch("/cart/items/{index}", s.handleChangeQuantity)
		mr.Delete("/cart/items/{index}", s.handleRemoveItem)
		mr.Post("/cart/items/{index}/save", s.handleSaveForLater)
		mr.Post("/cart/coupon", s.handleApplyCoupon)
		mr.Delete("/cart", s.handleClearCart)
		mr.Post("/checkout", s.handleCheckout)
	})

	if adminRoutes != nil {
		r.Mount("/admin", adminRoutes)
	}

	return r
}
