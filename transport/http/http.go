package http

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sreekar2307/clusterhealth/config"
	"github.com/sreekar2307/clusterhealth/controller"
	"github.com/sreekar2307/clusterhealth/logger"
)

type Http struct {
	health *controller.Health
	log    logger.Logger

	server   *http.Server
	config   config.HTTP
	listener net.Listener
}

func NewTransport(
	_ context.Context,
	config config.HTTP,
	health *controller.Health,
	gatherer prometheus.Gatherer,
	log logger.Logger,
) (*Http, error) {
	transport := &Http{
		health: health,
		config: config,
		log:    log.WithFields(logger.NewAttr("transport", "http")),
	}
	serverMux := http.NewServeMux()
	serverMux.HandleFunc("GET /health", transport.healthReport)
	serverMux.HandleFunc("GET /health/history", transport.healthHistory)
	serverMux.HandleFunc("GET /livez", transport.liveness)
	serverMux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := http.Server{
		Addr:              config.ListenerAddr,
		Handler:           serverMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	transport.server = &server
	return transport, nil
}

func (h *Http) Handler() http.Handler {
	return h.server.Handler
}

// Start binds the listener and serves in the background.
func (h *Http) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", h.config.ListenerAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	h.listener = lis
	h.log.Info(ctx, "http server started", logger.NewAttr("addr", lis.Addr().String()))
	go func() {
		if err := h.server.Serve(lis); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			h.log.Error(context.Background(), "http server stopped", logger.NewAttr("error", err))
		}
	}()
	return nil
}

func (h *Http) Addr() net.Addr {
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

func (h *Http) Close(ctx context.Context) error {
	if err := h.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
