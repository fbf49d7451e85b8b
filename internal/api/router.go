package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthProbeTimeout bounds the hub round-trip in the health handler so a
// hung hub cannot pin the request for the full client timeout.
const healthProbeTimeout = 5 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// System metrics (no auth required for basic monitoring)
		r.Get("/metrics", s.handleMetrics)

		// WebSocket authenticates with a token query parameter inside the
		// handler; browsers cannot set an Authorization header on dials.
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Point endpoints
			r.Route("/points", func(r chi.Router) {
				r.Get("/", s.handleListPoints)

				r.Route("/{name}", func(r chi.Router) {
					r.Get("/", s.handleGetPoint)
					r.Post("/write", s.handleWritePoint)
					r.Get("/history", s.handleGetPointHistory)
				})
			})

			// On-demand scrape
			r.Post("/scrape", s.handleScrape)

			// Registry inspection and reload
			r.Route("/registry", func(r chi.Router) {
				r.Get("/", s.handleGetRegistry)
				r.Post("/reload", s.handleReloadRegistry)
			})
		})
	})

	return r
}

// handleHealth returns the server health status with per-component detail.
// A failing hub, broker, or database degrades the status but the endpoint
// still answers 200; the body is the diagnosis.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	status := "ok"
	components := make(map[string]string)

	if err := s.driver.HealthCheck(ctx); err != nil {
		components["hub"] = "unreachable"
		status = "degraded"
	} else {
		components["hub"] = "ok"
	}

	if s.mqtt != nil {
		if s.mqtt.IsConnected() {
			components["mqtt"] = "ok"
		} else {
			components["mqtt"] = "disconnected"
			status = "degraded"
		}
	}

	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			components["database"] = "error"
			status = "degraded"
		} else {
			components["database"] = "ok"
		}
	}

	// InfluxDB is telemetry only; its absence never degrades the bridge.
	if s.influx != nil {
		if s.influx.IsConnected() {
			components["influxdb"] = "ok"
		} else {
			components["influxdb"] = "disconnected"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}
