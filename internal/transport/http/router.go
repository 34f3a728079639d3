// Package httptransport is the thin HTTP layer over the reconciliation core.
// Handlers decode, validate once, call the domain service and translate the
// error taxonomy to HTTP; no business logic lives here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"motormint/internal/platform/metrics"
	"motormint/internal/platform/middleware"
	"motormint/internal/transport/http/shared"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Handler holds the wired domain services behind every route.
type Handler struct {
	identities IdentityService
	sessions   SessionIssuer
	mints      MintService
	audits     AuditService
	health     map[string]HealthCheck
	logger     *slog.Logger
}

func NewHandler(
	identities IdentityService,
	sessions SessionIssuer,
	mints MintService,
	audits AuditService,
	health map[string]HealthCheck,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		identities: identities,
		sessions:   sessions,
		mints:      mints,
		audits:     audits,
		health:     health,
		logger:     logger,
	}
}

// NewRouter wires all public endpoints with the shared middleware chain.
// Mutating routes require a wallet session token.
func NewRouter(h *Handler, validator middleware.SessionValidator, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(m))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/identity/resolve", h.handleResolveIdentity)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		r.Post("/mint/confirm", h.handleConfirmMint)
		r.Post("/ownership/audit", h.handleOwnershipAudit)
	})

	return r
}

// handleHealth reports per-dependency health. Any failing probe turns the
// whole response 503 so load balancers stop routing here.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, check := range h.health {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	shared.WriteJSON(w, status, map[string]any{
		"status": http.StatusText(status),
		"checks": checks,
	})
}
