package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum-optimism/infra/op-harness/metrics"
	"github.com/ethereum/go-ethereum/log"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = 8080

	// ShutdownTimeout bounds how long Shutdown waits for open connections.
	ShutdownTimeout = 5 * time.Second
)

// Config selects which servers run and where.
type Config struct {
	HealthzEnabled bool
	HealthzHost    string
	HealthzPort    int
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int
}

type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer

	cfg Config
	log log.Logger
}

func New(cfg Config, logger log.Logger) *Service {
	s := &Service{
		Healthz: &HealthzServer{log: logger},
		Metrics: &MetricsServer{},
		cfg:     cfg,
		log:     logger,
	}
	return s
}

// Start serves the enabled endpoints in the background. The servers are
// registered before Start returns, so a following Shutdown always stops them.
func (s *Service) Start() {
	s.log.Debug("service starting")

	if s.cfg.HealthzEnabled {
		addr := net.JoinHostPort(s.cfg.HealthzHost, strconv.Itoa(s.cfg.HealthzPort))
		s.Healthz.Init(addr)
		go func() {
			s.log.Info("starting healthz server", "addr", addr)
			if err := s.Healthz.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("error starting healthz server", "err", err)
				metrics.RecordErrorDetails("error starting healthz server", err)
			}
		}()
	}

	if s.cfg.MetricsEnabled {
		addr := net.JoinHostPort(s.cfg.MetricsHost, strconv.Itoa(s.cfg.MetricsPort))
		s.Metrics.Init(addr)
		go func() {
			s.log.Info("starting metrics server", "addr", addr)
			if err := s.Metrics.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("error starting metrics server", "err", err)
				metrics.RecordErrorDetails("error starting metrics server", err)
			}
		}()
	}

	s.log.Debug("service started")
}

// Shutdown stops both servers. It does not take the lifecycle context, which
// is already canceled when the harness is interrupted.
func (s *Service) Shutdown() {
	s.log.Debug("service shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Healthz.Shutdown(ctx); err != nil {
		s.log.Warn("error stopping healthz server", "err", err)
	}
	if err := s.Metrics.Shutdown(ctx); err != nil {
		s.log.Warn("error stopping metrics server", "err", err)
	}

	s.log.Debug("service stopped")
}
