package api

import (
	"net/http"

	"video-qa/shared/config"
	"video-qa/shared/monitoring"
)

// NewRouter sets up routes and applies global middleware.
func NewRouter(h *Handler, health *monitoring.HealthServer, cfg config.ServerConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Home)
	process := RateLimit(cfg.ProcessRate, cfg.ProcessBurst, http.HandlerFunc(h.Process))
	mux.Handle("POST /process/", process)
	mux.Handle("POST /process", process)
	mux.HandleFunc("POST /ask/", h.Ask)
	mux.HandleFunc("POST /ask", h.Ask)
	if health != nil {
		health.Register(mux)
	}

	return LoggingMiddleware(CORSMiddleware(cfg.AllowedOrigins, mux))
}
