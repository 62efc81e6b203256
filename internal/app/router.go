package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mercurio-erp/mercurio-erp/internal/analytics"
	"github.com/mercurio-erp/mercurio-erp/internal/balance"
	"github.com/mercurio-erp/mercurio-erp/internal/billing"
	"github.com/mercurio-erp/mercurio-erp/internal/catalog"
	"github.com/mercurio-erp/mercurio-erp/internal/customers"
	"github.com/mercurio-erp/mercurio-erp/internal/expenses"
	"github.com/mercurio-erp/mercurio-erp/internal/notifications"
	"github.com/mercurio-erp/mercurio-erp/internal/observability"
	"github.com/mercurio-erp/mercurio-erp/internal/owners"
	"github.com/mercurio-erp/mercurio-erp/internal/purchases"
	"github.com/mercurio-erp/mercurio-erp/internal/sales"
	"github.com/mercurio-erp/mercurio-erp/internal/suppliers"
	"github.com/mercurio-erp/mercurio-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	OwnersHandler        *owners.Handler
	CustomersHandler     *customers.Handler
	SuppliersHandler     *suppliers.Handler
	CatalogHandler       *catalog.Handler
	PurchasesHandler     *purchases.Handler
	SalesHandler         *sales.Handler
	ExpensesHandler      *expenses.Handler
	BillingHandler       *billing.Handler
	BalanceHandler       *balance.Handler
	NotificationsHandler *notifications.Handler
	AnalyticsHandler     *analytics.Handler
	AnalyticsService     *analytics.Service
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with Mercurio defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(invalidateDashboard(params.AnalyticsService))

		api.Route("/owners", params.OwnersHandler.MountRoutes)
		api.Route("/customers", params.CustomersHandler.MountRoutes)
		api.Route("/suppliers", params.SuppliersHandler.MountRoutes)
		api.Route("/products", params.CatalogHandler.MountRoutes)
		api.Route("/purchases", params.PurchasesHandler.MountRoutes)
		api.Route("/sales", params.SalesHandler.MountRoutes)
		api.Route("/expenses", params.ExpensesHandler.MountRoutes)
		api.Route("/billing", params.BillingHandler.MountRoutes)
		api.Route("/balance", params.BalanceHandler.MountRoutes)
		api.Route("/notifications", params.NotificationsHandler.MountRoutes)
		api.Route("/analytics", params.AnalyticsHandler.MountRoutes)
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}

// invalidateDashboard bumps the dashboard cache after any mutating request.
// Cheaper than teaching every service which aggregates it affects.
func invalidateDashboard(svc *analytics.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if svc == nil {
				return
			}
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				_ = svc.Invalidate(r.Context())
			}
		})
	}
}
