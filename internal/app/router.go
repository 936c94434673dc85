// Package app assembles the HTTP surface of the gateway.
package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/partner-gateway-service/internal/config"
	"github.com/partner-gateway-service/internal/handler"
	"github.com/partner-gateway-service/internal/idempotency"
	"github.com/partner-gateway-service/internal/metrics"
	"github.com/partner-gateway-service/internal/middleware"
	"github.com/partner-gateway-service/internal/service"
	"github.com/partner-gateway-service/internal/store"
)

// Dependencies carries everything the router mounts.
type Dependencies struct {
	Config        *config.Config
	Store         store.Store
	Authenticator *middleware.Authenticator
	AuthLimiter   *middleware.AuthAttemptLimiter
	Guard         *idempotency.Guard
	AuthService   *service.AuthService
	NotifyService *service.NotifyService
	Collector     *metrics.Collector
	Registry      *prometheus.Registry
}

// NewRouter wires middleware and handlers into the gateway's route tree.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if len(deps.Config.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.Config.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", middleware.SharedKeyHeader, middleware.IdempotencyKeyHeader},
		}))
	}

	r.Method(http.MethodGet, "/healthz", handler.NewHealthHandler(deps.Store))
	if deps.Registry != nil {
		r.Handle("/metrics", metrics.Handler(deps.Registry))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/auth/token", handler.NewTokenHandler(deps.AuthService))
		r.Method(http.MethodPost, "/auth/refresh", handler.NewRefreshHandler(deps.AuthService))

		// Inbound callbacks from the settlement network carry their own
		// envelope signature instead of partner credentials.
		r.Route("/settlement", func(r chi.Router) {
			r.Use(middleware.VerifySettlement(deps.Config.SettlementSharedSecret))
			r.Method(http.MethodPost, "/notifications", handler.NewSettlementNotificationHandler())
		})

		// Partner-facing routes: authenticated, mutations idempotent.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Authenticator, deps.AuthLimiter, deps.Collector))
			r.Method(http.MethodGet, "/webhooks/deliveries", handler.NewListDeliveriesHandler(deps.Store))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Idempotent(deps.Guard, deps.Collector))
				r.Method(http.MethodPost, "/webhooks/test", handler.NewTestWebhookHandler(deps.NotifyService))
			})
		})
	})

	return r
}
