package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/reventa-app/reventa/internal/delivery"
	"github.com/reventa-app/reventa/internal/ledger"
	"github.com/reventa-app/reventa/internal/observability"
	"github.com/reventa-app/reventa/internal/settlement"
	"github.com/reventa-app/reventa/internal/splits"
	"github.com/reventa-app/reventa/internal/stock"
	"github.com/reventa-app/reventa/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	LedgerHandler     *ledger.Handler
	DeliveryHandler   *delivery.Handler
	SplitsHandler     *splits.Handler
	SettlementHandler *settlement.Handler
	StockHandler      *stock.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with the JSON API surface.
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

	r.Route("/resellers", params.LedgerHandler.MountResellerRoutes)
	r.Route("/movements", func(r chi.Router) {
		params.LedgerHandler.MountMovementRoutes(r)
		params.DeliveryHandler.MountMovementRoutes(r)
	})
	r.Route("/deliveries", params.DeliveryHandler.MountRoutes)
	r.Route("/payments", params.SplitsHandler.MountPaymentRoutes)
	r.Route("/splits", params.SplitsHandler.MountSplitRoutes)
	r.Route("/settlement", params.SettlementHandler.MountRoutes)
	r.Route("/stock", params.StockHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
