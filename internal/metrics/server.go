package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sobulik/fundec/types"
)

// Server serves Prometheus metrics and a health probe over HTTP.
type Server struct {
	server   *http.Server
	listener net.Listener
	logger   types.Logger
	done     chan struct{}
}

// Serve starts an HTTP server on addr exposing /metrics for gatherer and /health.
//
// The listener is bound before Serve returns, so bind errors are reported
// synchronously. Call Shutdown to stop the server.
//
// Parameters:
//   - addr: Address to listen on (e.g., ":9090", "127.0.0.1:0")
//   - gatherer: Metrics source (prometheus.DefaultGatherer if nil)
//   - logger: Receives server errors
//
// Returns:
//   - *Server: Running server
//   - error: Listen error
func Serve(addr string, gatherer prometheus.Gatherer, logger types.Logger) (*Server, error) {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK\n")
	})

	s := &Server{
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: ln,
		logger:   logger,
		done:     make(chan struct{}),
	}

	logger.Info("serving metrics", "addr", ln.Addr().String())

	go func() {
		defer close(s.done)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", "error", err)
		}
	}()

	return s, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	<-s.done

	return err
}
