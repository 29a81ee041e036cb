package api

import (
	"net/http"
	"time"

	"github.com/kjannette/mindful-trader/internal/metrics"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Database string `json:"database"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if s.stores.DB == nil {
		dbStatus = "not configured"
	} else if err := s.stores.DB.Ping(r.Context()); err != nil {
		dbStatus = "disconnected"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: s.opts.Now().UTC().Format(time.RFC3339),
		Services:  healthServices{Database: dbStatus},
	})
}

func (s *Server) handlePrometheus(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}
