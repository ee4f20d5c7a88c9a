// Package health serves liveness, readiness and Prometheus metrics for a
// worker process.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Checker reports whether a dependency is ready. *producer.Producer and
// *consumer.Consumer implement it.
type Checker interface {
	IsReady() bool
}

// CheckFunc adapts a function to Checker.
type CheckFunc func() bool

// IsReady implements Checker.
func (f CheckFunc) IsReady() bool { return f() }

type report struct {
	Status     string          `json:"status"`
	Service    string          `json:"service,omitempty"`
	Components map[string]bool `json:"components,omitempty"`
}

// Server exposes /healthz, /readyz, /readyz/{component} and /metrics.
type Server struct {
	service string
	logger  zerolog.Logger

	mu     sync.RWMutex
	checks map[string]Checker

	srv *http.Server
}

// NewServer builds a server listening on port. Call Register before Start.
func NewServer(service string, port int, logger zerolog.Logger) *Server {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	s := &Server{
		service: service,
		logger:  logger,
		checks:  make(map[string]Checker),
	}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Register adds a named readiness check. A nil checker is ignored.
func (s *Server) Register(name string, c Checker) {
	if c == nil || reflect.ValueOf(c).IsZero() {
		return
	}
	s.mu.Lock()
	s.checks[name] = c
	s.mu.Unlock()
}

// Router returns the HTTP routes served by s.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.liveness).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.readiness).Methods(http.MethodGet)
	r.HandleFunc("/readyz/{component}", s.componentReadiness).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Start serves in the background. Listener failures are sent on the returned
// channel, which is closed once the server stops.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.logger.Info().Str("addr", s.srv.Addr).Msg("health server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown stops the server, waiting at most timeout for open requests.
func (s *Server) Shutdown(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) liveness(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, report{Status: "ok", Service: s.service})
}

func (s *Server) readiness(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	components := make(map[string]bool, len(s.checks))
	for name, c := range s.checks {
		components[name] = c.IsReady()
	}
	s.mu.RUnlock()

	status, code := "ok", http.StatusOK
	for _, ready := range components {
		if !ready {
			status, code = "not ready", http.StatusServiceUnavailable
			break
		}
	}
	s.write(w, code, report{Status: status, Service: s.service, Components: components})
}

func (s *Server) componentReadiness(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["component"]

	s.mu.RLock()
	c, ok := s.checks[name]
	s.mu.RUnlock()
	if !ok {
		s.write(w, http.StatusNotFound, report{Status: "unknown component"})
		return
	}
	if !c.IsReady() {
		s.write(w, http.StatusServiceUnavailable, report{Status: "not ready", Components: map[string]bool{name: false}})
		return
	}
	s.write(w, http.StatusOK, report{Status: "ok", Components: map[string]bool{name: true}})
}

func (s *Server) write(w http.ResponseWriter, code int, body report) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write health response")
	}
}

// Components lists the registered check names in order.
func (s *Server) Components() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
