package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unitdag/unitd/util/panics"
)

const shutdownTimeout = 5 * time.Second

// Server serves the metrics of a Metrics over HTTP at /metrics
type Server struct {
	listener net.Listener
	server   *http.Server
}

// NewServer listens on listenAddress. Serving starts with Start.
func NewServer(m *Metrics, listenAddress string) (*Server, error) {
	listener, err := net.Listen("tcp", listenAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", listenAddress)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	return &Server{
		listener: listener,
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
	}, nil
}

// Address returns the address the server listens on
func (s *Server) Address() string {
	return s.listener.Addr().String()
}

func (s *Server) Start() {
	spawn := panics.GoroutineWrapperFunc(log)
	spawn("metrics.Server.Start", func() {
		log.Infof("Metrics server listening on %s", s.Address())
		err := s.server.Serve(s.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %s", err)
		}
	})
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
