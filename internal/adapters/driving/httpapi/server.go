// Package httpapi exposes ingestion and retrieval over a small JSON
// HTTP API, for callers that embed neither the CLI nor MCP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/egregore-labs/manualdex/internal/core/ports/driving"
	"github.com/egregore-labs/manualdex/internal/logger"
)

// Server wraps the core services behind an http.Server.
type Server struct {
	ingest    driving.IngestService
	search    driving.SearchService
	documents driving.DocumentService
	httpSrv   *http.Server
}

// NewServer creates an HTTP API server listening on addr.
func NewServer(
	addr string,
	ingest driving.IngestService,
	search driving.SearchService,
	documents driving.DocumentService,
) *Server {
	s := &Server{
		ingest:    ingest,
		search:    search,
		documents: documents,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /doc/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /doc/{id}/page/{page}", s.handleGetPage)
	mux.HandleFunc("DELETE /doc/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           logRequests(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	logger.Info("http api listening on %s", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// logRequests logs method, path and duration of every request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
