package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"tour-planner/internal/config"
	"tour-planner/internal/handlers"
)

// Version is reported by the health endpoint; overridden at build time
var Version = "dev"

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	backend    *Backend
	listener   net.Listener
	addr       string
}

// New creates and initializes a new server (does not start it)
func New(cfg config.Config) (*Server, error) {
	backend, err := NewBackend(cfg, ProviderOSRM)
	if err != nil {
		return nil, err
	}

	handler := &handlers.Handler{
		Optimizer:     backend.Optimizer,
		Geocoder:      backend.Geocoder,
		MatrixCache:   backend.Matrices,
		DistanceCache: backend.DistanceCache,
		Store:         backend.Store(),
		Metric:        cfg.Metric,
		MaxWaypoints:  cfg.Server.MaxWaypoints,
		Version:       Version,
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		backend:    backend,
		addr:       cfg.Server.Addr,
	}, nil
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Printf("Starting server on %s", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.backend.Close()
}

// NewRouter registers the API routes on a gorilla/mux router and wraps it
// in the logging and CORS middleware.
func NewRouter(handler *handlers.Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/v1/health", handler.HandleHealthCheck).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/routes/optimize", handler.HandleOptimizeRoute).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/routes/optimize/geojson", handler.HandleOptimizeRouteGeoJSON).Methods(http.MethodPost)

	r.HandleFunc("/api/v1/cache/matrix", handler.HandleMatrixCacheStats).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/cache/matrix", handler.HandleClearMatrixCache).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/cache/distances", handler.HandleClearDistanceCache).Methods(http.MethodDelete)

	r.HandleFunc("/api/v1/address-search", handler.HandleAddressSearch).Methods(http.MethodGet)

	return loggingMiddleware(corsMiddleware(r))
}

const requestIDHeader = "X-Request-ID"

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		r = r.WithContext(handlers.WithRequestID(r.Context(), requestID))

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		log.Printf("%s %s %d %v request_id=%s", r.Method, r.URL.Path, lrw.statusCode, duration, requestID)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins (local map front ends)
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
