// Package httpapi exposes the analysis service over REST and SSE.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/briefler/briefler/internal/config"
	"github.com/briefler/briefler/internal/core"
	"go.uber.org/zap"
)

const (
	serviceName    = "briefler-api"
	serviceVersion = "1.0.0"
)

// Server hosts the HTTP API
type Server struct {
	service *core.AnalysisService
	history core.HistoryRepository
	logger  *zap.Logger
	httpSrv *http.Server

	corsOrigins     []string
	shutdownTimeout time.Duration
}

// NewServer creates a new API server
func NewServer(
	service *core.AnalysisService,
	history core.HistoryRepository,
	cfg config.ServerConfig,
	logger *zap.Logger,
) *Server {
	s := &Server{
		service:         service,
		history:         history,
		logger:          logger,
		corsOrigins:     cfg.CORSOrigins,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/flows/gmail-read", s.handleAnalyze)
	mux.HandleFunc("GET /api/flows/gmail-read/stream", s.handleAnalyzeStream)
	mux.HandleFunc("GET /api/history", s.handleHistoryList)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistoryGet)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	s.httpSrv = &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: s.corsMiddleware(mux),
	}
	return s
}

// Handler returns the server's root handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start begins serving requests and blocks until the listener closes
func (s *Server) Start() error {
	s.logger.Info("Starting API server", zap.String("address", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("Stopping API server")
	return s.httpSrv.Shutdown(ctx)
}

// corsMiddleware applies the configured CORS policy and answers preflights
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
