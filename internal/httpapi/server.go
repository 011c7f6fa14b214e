// Package httpapi serves the agent's read-only local status endpoints.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pipecdn/agent/internal/scheduler"
	"github.com/pipecdn/agent/internal/store"
)

const (
	defaultResultsLimit = 50
	maxResultsLimit     = 500
)

type Server struct {
	Logger  *zap.Logger
	Results store.ResultStore
	Status  func() scheduler.Snapshot
}

func NewServer(l *zap.Logger, results store.ResultStore, status func() scheduler.Snapshot) *Server {
	return &Server{Logger: l, Results: results, Status: status}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/results", s.handleResults)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Status())
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxResultsLimit {
		limit = maxResultsLimit
	}

	recs, err := s.Results.Recent(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("results_query_failed", zap.Error(err))
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(recs)
}
