// Package web serves the dashboard: HTML views over the vault, a small
// JSON API, approve/reject actions, and the Prometheus endpoint. It is
// the only concurrent component; it touches the store solely through
// vault operations.
package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/deskhand/deskhand/pkg/journal"
	"github.com/deskhand/deskhand/pkg/log"
	"github.com/deskhand/deskhand/pkg/metrics"
	"github.com/deskhand/deskhand/pkg/types"
	"github.com/deskhand/deskhand/pkg/vault"
	"github.com/deskhand/deskhand/pkg/zone"
)

// Server is the HTTP surface over one vault.
type Server struct {
	vault   *vault.Vault
	journal *journal.Journal
	zone    types.Zone
	caps    zone.Capabilities
	addr    string
	httpSrv *http.Server
	logger  zerolog.Logger
}

// New wires a server listening on port.
func New(v *vault.Vault, j *journal.Journal, z types.Zone, port int) *Server {
	s := &Server{
		vault:   v,
		journal: j,
		zone:    z,
		caps:    zone.For(z),
		addr:    fmt.Sprintf(":%d", port),
		logger:  log.WithComponent("web"),
	}
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/pending", s.handlePending)
	mux.HandleFunc("GET /api/activity", s.handleActivity)
	mux.HandleFunc("GET /tasks", s.handleTasks)
	mux.HandleFunc("POST /approve/{path...}", s.handleDecision(vault.FolderApproved, "approved"))
	mux.HandleFunc("POST /reject/{path...}", s.handleDecision(vault.FolderRejected, "rejected"))
	mux.HandleFunc("GET /view/{folder}/{name...}", s.handleView)
	mux.Handle("GET /metrics", metrics.Handler())
	return s.instrument(mux)
}

// instrument counts requests into the Prometheus collectors.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("dashboard listening")
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
