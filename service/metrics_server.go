package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the prometheus default registry on /metrics.
type MetricsServer struct {
	mu     sync.Mutex
	server *http.Server
}

func (m *MetricsServer) Init(addr string) {
	hdlr := http.NewServeMux()
	hdlr.Handle("/metrics", promhttp.Handler())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.server = &http.Server{
		Handler: hdlr,
		Addr:    addr,
	}
}

func (m *MetricsServer) Serve() error {
	m.mu.Lock()
	server := m.server
	m.mu.Unlock()
	if server == nil {
		return http.ErrServerClosed
	}
	return server.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
