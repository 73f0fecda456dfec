package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"aquatrack/internal/alerts"
	"aquatrack/internal/database"
	"aquatrack/internal/models"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the stored datasets and the alert engine to the
// dashboard. All formatting and coloring decisions belong to the
// presentation layer; this API only returns data.
type Server struct {
	db     *database.DB
	engine *alerts.Engine
	mux    *http.ServeMux
}

// NewServer creates a new HTTP server
func NewServer(db *database.DB, engine *alerts.Engine) *Server {
	s := &Server{
		db:     db,
		engine: engine,
		mux:    http.NewServeMux(),
	}

	// Register routes
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/samples", s.handleSamples)
	s.mux.HandleFunc("/alerts", s.handleAlerts)
	s.mux.HandleFunc("/summary", s.handleSummary)
	s.mux.HandleFunc("/evaluate", s.handleEvaluate)
	s.mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

// handleHealth returns the server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().String(),
	})
}

// handleSamples returns stored samples for a scenario
func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	scenario, ok := parseScenario(w, r)
	if !ok {
		return
	}

	hoursStr := r.URL.Query().Get("hours")
	since := time.Time{} // zero value: full horizon
	if hoursStr != "" {
		hours, err := strconv.Atoi(hoursStr)
		if err != nil || hours <= 0 {
			http.Error(w, "hours must be a positive integer", http.StatusBadRequest)
			return
		}
		since = time.Now().Add(-time.Duration(hours) * time.Hour)
	}

	samples, err := s.db.GetSamples(scenario, since)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"scenario": scenario,
		"count":    len(samples),
		"data":     samples,
	})
}

// handleAlerts returns stored alerts for a scenario
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	scenario, ok := parseScenario(w, r)
	if !ok {
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit := 100
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	alerts, err := s.db.GetAlerts(scenario, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"scenario": scenario,
		"count":    len(alerts),
		"alerts":   alerts,
	})
}

// handleSummary returns the headline figures for a scenario
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	scenario, ok := parseScenario(w, r)
	if !ok {
		return
	}

	summary, err := s.db.GetScenarioSummary(scenario)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// handleEvaluate runs the alert engine against the stored samples for a
// scenario, as if the full stored sequence were the data seen so far.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	scenario, ok := parseScenario(w, r)
	if !ok {
		return
	}

	samples, err := s.db.GetSamples(scenario, time.Time{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	found := s.engine.Evaluate(samples)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"scenario": scenario,
		"count":    len(found),
		"alerts":   found,
	})
}

// parseScenario reads and validates the scenario query parameter,
// defaulting to baseline.
func parseScenario(w http.ResponseWriter, r *http.Request) (models.Scenario, bool) {
	raw := r.URL.Query().Get("scenario")
	if raw == "" {
		return models.ScenarioBaseline, true
	}

	for _, sc := range models.Scenarios {
		if models.Scenario(raw) == sc {
			return sc, true
		}
	}

	http.Error(w, "scenario must be one of baseline, anomaly, optimized", http.StatusBadRequest)
	return "", false
}
