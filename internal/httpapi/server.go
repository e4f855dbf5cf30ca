// Package httpapi is the thin Everything-compatible HTTP query surface
// described at the interface level by §6: search plus the admin
// operations, kept minimal since wire-format compatibility is the
// caller's concern, not the core's.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/localindex/gofind/internal/coordinator"
	"github.com/localindex/gofind/pkg/log"
)

// Server wraps a coordinator.Coordinator behind a stdlib http.Server.
type Server struct {
	http *http.Server
	co   *coordinator.Coordinator
	log  log.LoggerService
}

// New builds a Server bound to addr, not yet listening.
func New(addr string, co *coordinator.Coordinator, logger log.LoggerService) *Server {
	s := &Server{co: co, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/roots", s.handleRoots)
	mux.HandleFunc("/rebuild", s.handleRebuild)
	mux.HandleFunc("/ignores", s.handleIgnores)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// ListenAndServe blocks, serving until the listener fails or Shutdown
// is called from another goroutine; it returns http.ErrServerClosed on
// a clean shutdown rather than an error.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
