package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"
)

type HealthzServer struct {
	mu     sync.Mutex
	server *http.Server
	log    log.Logger
}

// Init builds the server for addr. Shutdown stops it from then on, even if
// Serve has not been called yet.
func (h *HealthzServer) Init(addr string) {
	hdlr := http.NewServeMux()
	hdlr.HandleFunc("/healthz", h.Handle)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	h.server = &http.Server{
		Handler: c.Handler(hdlr),
		Addr:    addr,
	}
}

// Serve blocks until the server is shut down. It returns http.ErrServerClosed
// when Shutdown came first.
func (h *HealthzServer) Serve() error {
	h.mu.Lock()
	server := h.server
	h.mu.Unlock()
	if server == nil {
		return http.ErrServerClosed
	}
	return server.ListenAndServe()
}

func (h *HealthzServer) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

func (h *HealthzServer) Handle(w http.ResponseWriter, r *http.Request) {
	if h.log != nil {
		h.log.Debug("Received health check request", "path", r.URL.Path)
	}
	w.Write([]byte("OK")) //nolint:errcheck
}
