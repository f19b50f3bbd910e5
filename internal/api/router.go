package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Route("/{ip}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Put("/online", s.handleSetOnline)
				r.Get("/history", s.handleDeviceHistory)
			})
		})

		r.Post("/dispatch", s.handleDispatch)

		r.Route("/network", func(r chi.Router) {
			r.Get("/routes", s.handleListRoutes)
			r.Get("/arp", s.handleListARP)
			r.Get("/route", s.handleProbeRoute)
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/log-level", s.handleGetLogLevel)
			r.Put("/log-level", s.handleSetLogLevel)
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"devices": s.registry.Len(),
	})
}

type logLevelBody struct {
	Level string `json:"level"`
}

func (s *Server) handleGetLogLevel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, logLevelBody{Level: s.logger.Level()})
}

// handleSetLogLevel changes the level of the process-wide logger.
func (s *Server) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req logLevelBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.logger.SetLevel(req.Level); err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())
		return
	}
	s.requestLogger(r).Info("log level changed", "level", s.logger.Level())
	writeJSON(w, http.StatusOK, logLevelBody{Level: s.logger.Level()})
}
