// Package server provides the HTTP server for the trainer's dashboard and
// control API.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/taala/internal/calib"
	"github.com/ayusman/taala/internal/capture"
	"github.com/ayusman/taala/internal/server/api"
	"github.com/ayusman/taala/internal/session"
	"github.com/ayusman/taala/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	Mapper    *calib.Mapper

	// Snapshot returns the current run state for the WebSocket push, or nil
	// when no session is active.
	Snapshot func() *session.Snapshot
}

// Server represents the trainer's HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		chartHandler := api.NewChartHandler(s.config.Store)
		s.mux.Handle("/api/charts", chartHandler)
		s.mux.Handle("/api/charts/", chartHandler)

		sessionsHandler := api.NewSessionsHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessionsHandler)
		s.mux.Handle("/api/sessions/", sessionsHandler)
	}

	if s.config.Store != nil && s.config.Mapper != nil {
		s.mux.Handle("/api/calibration", api.NewCalibrationHandler(s.config.Mapper, s.config.Store))
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.Snapshot != nil {
		s.mux.Handle("/api/state", NewStateHandler(s.config.Snapshot))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
