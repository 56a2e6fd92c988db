// Package api exposes the demo to the rendering layer over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hejijunhao/edgepair/internal/api/middleware"
)

// NewRouter creates and configures the HTTP router. figuresDir, when set,
// is served under /figures/.
func NewRouter(logger *slog.Logger, demo Demo, figuresDir string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Metrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// The dashboard may be served from another origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	h := NewHandler(demo)

	r.Handle("/metrics", promhttp.Handler())
	if figuresDir != "" {
		r.Handle("/figures/*", http.StripPrefix("/figures/", http.FileServer(http.Dir(figuresDir))))
	}

	r.Get("/health", h.Health)
	r.Get("/devices", h.Devices)
	r.Get("/devices/{idx}/log", h.DeviceLog)
	r.Get("/catalog", h.Catalog)
	r.Get("/narrative", h.Narrative)
	r.Post("/deploy", h.Deploy)
	r.Post("/run", h.Run)
	r.Post("/reset", h.Reset)

	return r
}
