package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"aquatrack/internal/models"
)

func TestNewServer(t *testing.T) {
	s := &Server{
		mux: http.NewServeMux(),
	}

	if s.mux == nil {
		t.Error("NewServer() mux should not be nil")
	}
}

func TestHandleHealth(t *testing.T) {
	s := &Server{
		mux: http.NewServeMux(),
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("handleHealth() status = %v, want %v", resp.StatusCode, http.StatusOK)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("handleHealth() content-type = %v, want application/json", contentType)
	}

	var response map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("handleHealth() status in body = %v, want healthy", response["status"])
	}

	if response["time"] == "" {
		t.Error("handleHealth() time should not be empty")
	}
}

func TestHandleEvaluate_InvalidMethod(t *testing.T) {
	s := &Server{
		mux: http.NewServeMux(),
	}

	req := httptest.NewRequest(http.MethodGet, "/evaluate", nil)
	w := httptest.NewRecorder()

	s.handleEvaluate(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("handleEvaluate() status = %v, want %v", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestHandleSamples_InvalidScenario(t *testing.T) {
	s := &Server{
		mux: http.NewServeMux(),
	}

	req := httptest.NewRequest(http.MethodGet, "/samples?scenario=bogus", nil)
	w := httptest.NewRecorder()

	s.handleSamples(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("handleSamples() status = %v, want %v", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestHandleSamples_InvalidHours(t *testing.T) {
	s := &Server{
		mux: http.NewServeMux(),
	}

	tests := []struct {
		name  string
		hours string
	}{
		{"non-numeric hours", "abc"},
		{"zero hours", "0"},
		{"negative hours", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/samples?hours="+tt.hours, nil)
			w := httptest.NewRecorder()

			s.handleSamples(w, req)

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("handleSamples() status = %v, want %v", resp.StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestParseScenario(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		want     models.Scenario
		wantOK   bool
		wantCode int
	}{
		{
			name:   "missing parameter defaults to baseline",
			query:  "",
			want:   models.ScenarioBaseline,
			wantOK: true,
		},
		{
			name:   "explicit baseline",
			query:  "?scenario=baseline",
			want:   models.ScenarioBaseline,
			wantOK: true,
		},
		{
			name:   "anomaly",
			query:  "?scenario=anomaly",
			want:   models.ScenarioAnomaly,
			wantOK: true,
		},
		{
			name:   "optimized",
			query:  "?scenario=optimized",
			want:   models.ScenarioOptimized,
			wantOK: true,
		},
		{
			name:     "unknown scenario",
			query:    "?scenario=bogus",
			wantOK:   false,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/samples"+tt.query, nil)
			w := httptest.NewRecorder()

			got, ok := parseScenario(w, req)
			if ok != tt.wantOK {
				t.Fatalf("parseScenario() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseScenario() = %v, want %v", got, tt.want)
			}
			if !ok && w.Result().StatusCode != tt.wantCode {
				t.Errorf("parseScenario() status = %v, want %v", w.Result().StatusCode, tt.wantCode)
			}
		})
	}
}
