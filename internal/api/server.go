// Package api provides the HTTP server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atlas-desktop/portfolio-sim/internal/data"
	"github.com/atlas-desktop/portfolio-sim/internal/montecarlo"
	"github.com/atlas-desktop/portfolio-sim/internal/report"
	"github.com/atlas-desktop/portfolio-sim/internal/telemetry"
	"github.com/atlas-desktop/portfolio-sim/pkg/types"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds request bodies, CSV imports included.
const maxBodyBytes = 32 << 20

// Server is the HTTP API server
type Server struct {
	logger     *zap.Logger
	config     *types.ServerConfig
	router     *mux.Router
	httpServer *http.Server
	engine     *montecarlo.Engine
	provider   data.Provider
	metrics    *telemetry.Metrics
}

// NewServer creates a new API server. provider and metrics may be nil.
func NewServer(logger *zap.Logger, config *types.ServerConfig, engine *montecarlo.Engine, provider data.Provider, metrics *telemetry.Metrics) *Server {
	server := &Server{
		logger:   logger,
		config:   config,
		router:   mux.NewRouter(),
		engine:   engine,
		provider: provider,
		metrics:  metrics,
	}

	server.setupRoutes()
	if config != nil {
		server.httpServer = &http.Server{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler:      server.Handler(),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		}
	}
	return server
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestID)

	// Health check
	s.router.HandleFunc("/api/v1/health", s.handleHealth).Methods("GET")

	// Simulator endpoints
	s.router.HandleFunc("/api/v1/simulator", s.handleSimulate).Methods("POST")
	s.router.HandleFunc("/api/v1/simulator/estimate", s.handleEstimate).Methods("POST")
	s.router.HandleFunc("/api/v1/simulator/chart", s.handleChart).Methods("POST")

	// Data endpoints
	s.router.HandleFunc("/api/v1/data/tickers", s.handleGetTickers).Methods("GET")
	s.router.HandleFunc("/api/v1/data/import", s.handleImport).Methods("POST")

	if s.config == nil || s.config.EnableMetrics {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	}).Handler(s.router)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if s.httpServer == nil {
		return fmt.Errorf("server has no config")
	}

	s.logger.Info("Starting API server", zap.String("addr", s.httpServer.Addr))

	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// requestID tags every request and response with a correlation id,
// reusing the caller's when present.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// handleSimulate runs a projection request
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.engine.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("simulation complete",
		zap.String("request_id", w.Header().Get(RequestIDHeader)),
		zap.String("model", req.SimulationModel),
		zap.Int("scenarios", len(resp.Scenarios)),
		zap.Duration("elapsed", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// handleEstimate reports a request's cost without running it
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	estimate, err := s.engine.Estimate(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

// handleChart runs a projection and renders one scenario as a PNG fan chart
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	scenario := montecarlo.ScenarioBaseline
	if tag := r.URL.Query().Get("scenario"); tag != "" {
		sc, err := montecarlo.ParseScenario(tag)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		scenario = sc
	}
	req.Scenarios = []string{string(scenario)}

	resp, err := s.engine.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sum, title, err := report.SelectSummary(resp, string(scenario), r.URL.Query().Get("portfolio"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	png, err := report.FanChart(title, sum)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleGetTickers returns tickers with stored history
func (s *Server) handleGetTickers(w http.ResponseWriter, r *http.Request) {
	tickers := []string{}
	if s.provider != nil {
		found, err := s.provider.Tickers(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if found != nil {
			tickers = found
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tickers": tickers,
		"count":   len(tickers),
	})
}

// handleImport loads a date,ticker,close CSV body into the price store
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no price store configured"})
		return
	}

	reports, err := data.ImportCSV(http.MaxBytesReader(w, r.Body, maxBodyBytes), s.provider, data.NewQualityValidator(s.logger))
	if err != nil {
		s.logger.Warn("csv import failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": len(reports),
		"reports":  reports,
	})
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*types.SimulationRequest, bool) {
	var req types.SimulationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return nil, false
	}
	return &req, true
}

// StatusFor maps an engine error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, montecarlo.ErrValidation), errors.Is(err, montecarlo.ErrInvalidModel):
		return http.StatusBadRequest
	case errors.Is(err, montecarlo.ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", w.Header().Get(RequestIDHeader)),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
