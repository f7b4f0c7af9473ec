package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-softwarelab/common/pkg/slogx"
)

// HTTPServer exposes the verify service as POST /<method> on a local port
type HTTPServer struct {
	logger     *slog.Logger
	addr       string
	httpServer *http.Server
	verifySvc  *VerifyService
	mu         sync.RWMutex
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(logger *slog.Logger, addr string) *HTTPServer {
	return &HTTPServer{
		logger: slogx.Child(logger, "HTTPServer"),
		addr:   addr,
	}
}

// SetVerifyService sets the service handling requests
func (s *HTTPServer) SetVerifyService(vs *VerifyService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifySvc = vs
}

// Handler returns the request handler with CORS applied.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	return s.corsMiddleware(mux)
}

// Start serves until ctx is cancelled
func (s *HTTPServer) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP server listening", "addr", "http://"+s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", slogx.Error(err))
		}
	}()

	<-ctx.Done()
	return nil
}

// Stop gracefully shuts down the server
func (s *HTTPServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", slogx.Error(err))
		}
		s.logger.Info("HTTP server stopped")
	}
}

// corsMiddleware adds CORS headers to all responses
func (s *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	// 4MB covers any proof of a realistic depth plus a large transaction
	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	method := strings.TrimPrefix(r.URL.Path, "/")

	s.mu.RLock()
	vs := s.verifySvc
	s.mu.RUnlock()

	if vs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Verifier not initialized")
		return
	}

	result, err := vs.CallMethod(r.Context(), method, string(body))
	if err != nil {
		s.logger.Error("Verify method error", "method", method, slogx.Error(err))
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, result)
}

// writeError writes a JSON error response
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
