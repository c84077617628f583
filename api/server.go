package api

import (
	"encoding/json"
	"net/http"

	"github.com/evosim/evo-wasm/evo"
	"github.com/evosim/evo-wasm/metrics"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

// Server wires the job manager, coordinator, and metrics registry into
// a single *http.ServeMux. None of this codebase's other dependencies
// cover routing, and a handful of routes doesn't earn one, so this
// stays on the standard library's mux.
type Server struct {
	jobManager  *JobManager
	coordinator *evo.Coordinator
	metrics     *metrics.Metrics
}

func NewServer(jm *JobManager, coordinator *evo.Coordinator, m *metrics.Metrics) *Server {
	return &Server{jobManager: jm, coordinator: coordinator, metrics: m}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/jobs/request", s.handleJobRequest)
	mux.HandleFunc("/api/jobs/submit", s.handleJobSubmit)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": Version})
}

type jobRequestBody struct {
	WorkerID string `json:"worker_id"`
}

func (s *Server) handleJobRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body jobRequestBody
	_ = json.NewDecoder(r.Body).Decode(&body)

	job, err := s.jobManager.GetJob()
	if err != nil {
		Logger.Printf("api: job request failed: %v\n", err)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.metrics.JobsCreatedTotal.Inc()
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var result evo.IslandResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	alreadyDone, err := s.jobManager.MarkJobComplete(result)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !alreadyDone {
		s.metrics.JobsCompletedTotal.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.jobManager.Stats()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coordinator.Config())
}
