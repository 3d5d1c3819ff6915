package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/imagerisk/imagerisk/pkg/postgres"
)

// HealthHandler provides HTTP health check endpoints.
type HealthHandler struct {
	db        postgres.Pinger
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health check handler. db may be nil, in
// which case readiness does not check the database.
func NewHealthHandler(db postgres.Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// RegisterRoutes registers health endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz handles readiness probe requests.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := postgres.HealthCheck(ctx, h.db); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "check", "database", "error", err)
			checks["database"] = "unavailable"
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	resp := ReadinessResponse{Status: "ready", Service: serviceName, Checks: checks}
	status := http.StatusOK
	if !ready {
		resp.Status = "not ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
