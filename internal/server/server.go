// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/fbft-benchlogs/internal/config"
	"github.com/smartdevs17/fbft-benchlogs/internal/metrics"
	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/internal/storage"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// HTTPServer serves stored analysis results
type HTTPServer struct {
	config         *config.ServerConfig
	version        string
	server         *http.Server
	router         *mux.Router
	storage        storage.Storage
	metricsManager *metrics.Manager
	logger         *logrus.Entry

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewHTTPServer creates a new HTTP server. metricsManager may be nil.
func NewHTTPServer(
	cfg *config.ServerConfig,
	store storage.Storage,
	metricsManager *metrics.Manager,
	version string,
) *HTTPServer {
	s := &HTTPServer{
		config:         cfg,
		version:        version,
		storage:        store,
		metricsManager: metricsManager,
		logger:         utils.ComponentLogger("server"),
		stopChan:       make(chan struct{}),
	}

	s.setupRouter()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	// Middleware
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
	if s.metricsManager != nil {
		s.router.Use(s.metricsMiddleware)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()

	if s.config.EnableHealth {
		api.HandleFunc("/health", s.healthHandler).Methods("GET")
	}

	if s.config.EnableMetrics && s.metricsManager != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metricsManager.Gatherer(), promhttp.HandlerOpts{}))
	}

	// Result endpoints
	api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	api.HandleFunc("/runs", s.listRunsHandler).Methods("GET")
	api.HandleFunc("/runs/{id}", s.getRunHandler).Methods("GET")
	api.HandleFunc("/runs/{id}/heights", s.getHeightsHandler).Methods("GET")
}

// Handler returns the routed handler
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address":         s.server.Addr,
		"metrics_enabled": s.config.EnableMetrics,
	}).Info("Starting HTTP server")

	if s.metricsManager != nil {
		s.updateHealthMetrics()
		go s.systemMetricsUpdater()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server error")
			errChan <- err
		}
	}()

	// Catch immediate binding errors
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (s *HTTPServer) updateHealthMetrics() {
	s.metricsManager.UpdateSystemMetrics()
	if s.storage == nil {
		return
	}
	pm := s.metricsManager.GetPrometheusMetrics()
	pm.UpdateComponentHealth("storage", s.storage.Ping() == nil)
	if stats, err := s.storage.GetStorageStats(); err == nil {
		pm.UpdateDatabaseConnections(stats.OpenConns)
	}
}

// systemMetricsUpdater updates system metrics periodically
func (s *HTTPServer) systemMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.updateHealthMetrics()
		case <-s.stopChan:
			return
		}
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")
	s.stopOnce.Do(func() { close(s.stopChan) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// healthHandler returns basic health status
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	storageHealthy := s.storage != nil && s.storage.Ping() == nil
	if !storageHealthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, map[string]interface{}{
		"status":          status,
		"storage":         storageHealthy,
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"version":         s.version,
		"metrics_enabled": s.config.EnableMetrics,
	})
}

// statsHandler returns storage statistics
func (s *HTTPServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.storage.GetStorageStats()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve storage stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp": time.Now(),
		"storage":   stats,
	})
}

// listRunsHandler lists analyzed runs, newest first
func (s *HTTPServer) listRunsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRunFilter(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid query parameter", err)
		return
	}

	runs, err := s.storage.GetRuns(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve runs", err)
		return
	}
	total, err := s.storage.GetRunCount(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to count runs", err)
		return
	}
	if runs == nil {
		runs = []*models.RunRecord{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":   runs,
		"limit":  filter.Limit,
		"offset": filter.Offset,
		"total":  total,
	})
}

func parseRunFilter(r *http.Request) (models.RunFilter, error) {
	q := r.URL.Query()
	filter := models.RunFilter{Limit: defaultPageSize}

	intParam := func(name string, dst *int) error {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return fmt.Errorf("%s must be a non-negative integer", name)
		}
		*dst = v
		return nil
	}
	if err := intParam("limit", &filter.Limit); err != nil {
		return filter, err
	}
	if err := intParam("offset", &filter.Offset); err != nil {
		return filter, err
	}
	if filter.Limit == 0 || filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	for _, p := range []struct {
		name string
		dst  **int
	}{{"nodes", &filter.Nodes}, {"faults", &filter.Faults}} {
		if q.Get(p.name) == "" {
			continue
		}
		var v int
		if err := intParam(p.name, &v); err != nil {
			return filter, err
		}
		*p.dst = &v
	}
	return filter, nil
}

// getRunHandler returns one run
func (s *HTTPServer) getRunHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := s.storage.GetRun(r.Context(), id)
	if err != nil {
		s.writeStorageError(w, "Run not found", err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// getHeightsHandler returns the per-height breakdown of a run
func (s *HTTPServer) getHeightsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := s.storage.GetRun(r.Context(), id); err != nil {
		s.writeStorageError(w, "Run not found", err)
		return
	}
	heights, err := s.storage.GetHeights(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve heights", err)
		return
	}
	if heights == nil {
		heights = []*models.HeightRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  id,
		"heights": heights,
	})
}

// Utility Methods

// writeStorageError maps not-found errors to 404 and everything else to 500
func (s *HTTPServer) writeStorageError(w http.ResponseWriter, notFound string, err error) {
	if errors.Is(err, utils.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, notFound, err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, "Storage error", err)
}

// writeJSON writes a JSON response
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string, err error) {
	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    status,
		"timestamp": time.Now(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
		s.logger.WithFields(logrus.Fields{
			"status":  status,
			"message": message,
		}).WithError(err).Warn("HTTP error")
	}

	s.writeJSON(w, status, errorResponse)
}
