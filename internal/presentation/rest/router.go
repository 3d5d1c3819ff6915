package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterConfig holds everything mounted on the HTTP server.
type RouterConfig struct {
	API    *Handler
	Health *HealthHandler

	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Stream serves the dashboard websocket when set.
	Stream http.Handler
	// UploadDir is served read-only under /uploads/ when set.
	UploadDir string

	CORSOrigins  []string
	RateLimitRPS float64
	Logger       *slog.Logger
}

// NewRouter builds the HTTP handler with middleware applied.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(mux)
	}
	if cfg.API != nil {
		cfg.API.RegisterRoutes(mux)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}
	if cfg.Stream != nil {
		mux.Handle("GET /api/dashboard/stream", cfg.Stream)
	}
	if cfg.UploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", noDirListing(http.FileServer(http.Dir(cfg.UploadDir)))))
	}

	// Build middleware chain (applied in reverse order).
	var h http.Handler = mux
	h = RateLimitMiddleware(cfg.RateLimitRPS)(h)
	h = LoggingMiddleware(logger)(h)
	h = CORSMiddleware(cfg.CORSOrigins)(h)
	h = otelhttp.NewHandler(h, serviceName,
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/readyz" && r.URL.Path != "/metrics"
		}),
	)
	return h
}

// noDirListing answers 404 for directory paths instead of listing them.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
