// Package httptransport assembles the HTTP surface: middleware chain,
// operational endpoints, and the per-domain handler registrations.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zkdao/pkg/platform/middleware/auth"
	"zkdao/pkg/platform/middleware/requestid"
	"zkdao/pkg/platform/middleware/requesttime"
)

// Registrar is a domain handler that mounts its routes on a router group.
type Registrar interface {
	Register(r chi.Router)
}

// Config carries everything the router needs to assemble the HTTP surface.
type Config struct {
	TokenValidator    auth.TokenValidator
	RevocationChecker auth.TokenRevocationChecker
	Logger            *slog.Logger

	// Handlers are mounted inside the authenticated group in order.
	Handlers []Registrar
}

// NewRouter wires the middleware chain and all endpoints. Operational
// endpoints stay public; everything else sits behind bearer auth so services
// always see an authenticated caller address in the request context.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.TokenValidator, cfg.RevocationChecker, cfg.Logger))
		for _, h := range cfg.Handlers {
			h.Register(r)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
