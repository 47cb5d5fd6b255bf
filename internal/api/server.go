// Package api serves species recommendations over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/suitability-cli/internal/config"
	"github.com/sells-group/suitability-cli/internal/store"
	"github.com/sells-group/suitability-cli/internal/suitability"
)

const (
	maxBodyBytes  = 1 << 20
	maxBatchFarms = 1000
)

// Server holds the dependencies of the HTTP handlers. The store is
// optional; without it run history endpoints report 503.
type Server struct {
	rec   *suitability.Recommender
	store store.Store
	cfg   config.ServerConfig
}

// NewServer creates a Server.
func NewServer(rec *suitability.Recommender, st store.Store, cfg config.ServerConfig) *Server {
	return &Server{rec: rec, store: st, cfg: cfg}
}

// Router builds the HTTP handler with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimit(s.cfg.RateLimit, s.cfg.RateBurst))

		r.Post("/recommendations", s.recommend)
		r.Post("/recommendations/batch", s.recommendBatch)

		r.Get("/species", s.listSpecies)
		r.Get("/species/{id}/rules", s.speciesRules)

		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
