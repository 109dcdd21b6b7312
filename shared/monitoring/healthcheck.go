package monitoring

import (
	"encoding/json"
	"fmt"
	"net/http"

	"video-qa/shared/logging"
)

// HealthServer exposes the monitor over HTTP. It does not own a listener;
// Register mounts its routes on the caller's mux.
type HealthServer struct {
	monitor *Monitor
}

func NewHealthServer(monitor *Monitor) *HealthServer {
	return &HealthServer{monitor: monitor}
}

func (h *HealthServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.healthHandler)
	mux.HandleFunc("GET /status", h.statusHandler)
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
	}
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.monitor.Status()); err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("failed to write status")
	}
}
