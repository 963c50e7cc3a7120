// Package admin serves health, record statistics and runtime log levels
// over HTTP next to the JSON-RPC transport.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JamesPrial/holon-descriptors/pkg/logging"
)

// StatsFunc reports record counts, usually descriptors.Service.Statistics
type StatsFunc func(ctx context.Context) (map[string]int, error)

// AdminServer provides administrative endpoints for runtime configuration
type AdminServer struct {
	logger *slog.Logger
	mux    *http.ServeMux
	stats  StatsFunc
}

// NewAdminServer creates a new admin server
func NewAdminServer(stats StatsFunc) *AdminServer {
	admin := &AdminServer{
		logger: logging.GetGlobalLogger("admin"),
		mux:    http.NewServeMux(),
		stats:  stats,
	}

	admin.setupRoutes()
	return admin
}

func (a *AdminServer) setupRoutes() {
	a.mux.HandleFunc("/health", a.handleHealth)
	a.mux.HandleFunc("/log-level", a.handleLogLevel)
	a.mux.HandleFunc("/log-levels", a.handleLogLevels)
	a.mux.HandleFunc("/stats", a.handleStats)
}

// ServeHTTP implements http.Handler
func (a *AdminServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleHealth reports healthy while the store answers
func (a *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := a.stats(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"server": "holon-descriptors",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"server": "holon-descriptors",
	})
}

func (a *AdminServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := a.stats(r.Context())
	if err != nil {
		a.logger.WarnContext(r.Context(), "Statistics unavailable", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleLogLevel handles GET/POST requests to view/update log levels
func (a *AdminServer) handleLogLevel(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.getLogLevel(w, r)
	case http.MethodPost:
		a.setLogLevel(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// LogLevelRequest represents a log level change request
type LogLevelRequest struct {
	Component string `json:"component"`
	Level     string `json:"level"`
}

// LogLevelResponse represents a log level response
type LogLevelResponse struct {
	Component string `json:"component"`
	Level     string `json:"level"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
}

func (a *AdminServer) getLogLevel(w http.ResponseWriter, r *http.Request) {
	component := r.URL.Query().Get("component")
	if component == "" {
		component = "default"
	}

	levels := logging.GlobalLevels()
	level, ok := levels[component]
	if !ok {
		level = levels["default"]
	}

	writeJSON(w, http.StatusOK, LogLevelResponse{
		Component: component,
		Level:     string(level),
		Success:   true,
	})
}

func (a *AdminServer) setLogLevel(w http.ResponseWriter, r *http.Request) {
	var req LogLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, LogLevelResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid JSON: %v", err),
		})
		return
	}

	validLevels := map[string]logging.LogLevel{
		"debug": logging.LogLevelDebug,
		"info":  logging.LogLevelInfo,
		"warn":  logging.LogLevelWarn,
		"error": logging.LogLevelError,
	}

	level, valid := validLevels[strings.ToLower(req.Level)]
	if !valid {
		writeJSON(w, http.StatusBadRequest, LogLevelResponse{
			Component: req.Component,
			Success:   false,
			Message:   fmt.Sprintf("Invalid log level '%s'. Must be one of: debug, info, warn, error", req.Level),
		})
		return
	}

	component := req.Component
	if component == "" {
		component = "default"
	}

	logging.UpdateGlobalLevel(component, level)

	a.logger.InfoContext(r.Context(), "Log level updated",
		slog.String("component", component),
		slog.String("level", string(level)))

	writeJSON(w, http.StatusOK, LogLevelResponse{
		Component: component,
		Level:     string(level),
		Success:   true,
		Message:   fmt.Sprintf("Log level for component '%s' updated to '%s'", component, level),
	})
}

func (a *AdminServer) handleLogLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"levels": logging.GlobalLevels(),
	})
}

// StartServer serves the admin endpoints on addr until ctx is done
func (a *AdminServer) StartServer(ctx context.Context, addr string) error {
	a.logger.InfoContext(ctx, "Starting admin server", slog.String("address", addr))

	server := &http.Server{
		Addr:              addr,
		Handler:           a,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
